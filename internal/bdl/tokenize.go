package bdl

import "strings"

// Block 为单个对象定义的文本片段（不含终止符 ".."）。
type Block struct {
	Text string
	// Line: 块内首个非空白字符所在行（1 起），用于错误定位。
	Line int
}

// Tokenize 将清洗后的文本切分为对象块。
// 规则：
//  1. 终止符为引号外的 ".."；
//  2. 仅含空白的块丢弃；
//  3. 末尾缺少终止符的非空文本作为最后一块返回；
//  4. 引号未闭合返回 *ParseError。
func Tokenize(src string) ([]Block, error) {
	var (
		blocks    []Block
		start     = 0
		line      = 1
		inQuote   = false
		quoteLine = 0
	)
	emit := func(end int) {
		text := src[start:end]
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			lead := len(text) - len(strings.TrimLeft(text, " \t\n"))
			first := line - strings.Count(text[lead:], "\n")
			blocks = append(blocks, Block{Text: trimmed, Line: first})
		}
	}
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\n':
			line++
		case c == '"':
			if !inQuote {
				quoteLine = line
			}
			inQuote = !inQuote
		case c == '.' && !inQuote && i+1 < len(src) && src[i+1] == '.':
			emit(i)
			i++
			start = i + 1
		}
	}
	if inQuote {
		return nil, &ParseError{Line: quoteLine, Msg: "unterminated quote"}
	}
	emit(len(src))
	return blocks, nil
}
