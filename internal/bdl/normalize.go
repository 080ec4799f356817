package bdl

import "strings"

// Normalize 对原始 INP 文本做最小词法清洗：
// - CRLF/CR → LF；
// - 去除引号外 '$' 起始至行尾的注释；
// - 丢弃 NUL、换页与 SUB(0x1A) 控制字符。
// 不改变引号内文本，不合并记录。
func Normalize(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")

	var b strings.Builder
	b.Grow(len(src))
	inQuote := false
	inComment := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\n':
			// 注释止于行尾；引号状态跨行保留，交由分块阶段判定是否闭合
			inComment = false
			b.WriteByte(c)
		case inComment:
		case c == 0 || c == '\f' || c == 0x1a:
		case c == '"':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '$' && !inQuote:
			inComment = true
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
