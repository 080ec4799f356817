package bdl

import (
	"fmt"

	"bdlgeom/pkg/contract"
)

// ParseError 描述结构性解析失败（引号未闭合、缺少命令关键字）。
// Line 为所在块的起始行号（1 起）。
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bdl: line %d: %s", e.Line, e.Msg)
}

// Unwrap 使 errors.Is(err, contract.ErrParse) 成立。
func (e *ParseError) Unwrap() error { return contract.ErrParse }
