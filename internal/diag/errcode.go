package diag

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"bdlgeom/pkg/contract"
)

// Code 是最小错误分类代码。
// 用于日志/指标汇总与退出码判定。
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeParse     Code = "parse"
	CodeGeometry  Code = "geometry"
	CodeSchema    Code = "schema"
	CodeInvariant Code = "invariant"
	CodeCancel    Code = "cancel"
	CodeIO        Code = "io"
)

// Classify 将错误归为最小分类。
// 仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// 取消/超时优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	if errors.Is(err, contract.ErrParse) {
		return CodeParse
	}
	if errors.Is(err, contract.ErrNoFloor) ||
		errors.Is(err, contract.ErrUnsupportedShape) ||
		errors.Is(err, contract.ErrDegenerateFootprint) ||
		errors.Is(err, contract.ErrAnchorUnresolved) {
		return CodeGeometry
	}
	if errors.Is(err, contract.ErrSchemaInvalid) {
		return CodeSchema
	}
	if errors.Is(err, contract.ErrInvalidInput) || errors.Is(err, contract.ErrPathInvalid) {
		return CodeInvariant
	}
	var perr *fs.PathError
	if errors.As(err, &perr) || errors.Is(err, fs.ErrNotExist) {
		return CodeIO
	}
	return CodeUnknown
}

// NowUTC 返回 RFC3339 UTC 时间字符串。
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
