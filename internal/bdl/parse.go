package bdl

import (
	"strings"
)

// CmdParameter 为全局替换参数块的命令字。
const CmdParameter = "PARAMETER"

// Parsed 为单个块的解析结果：唯一名、命令、有序关键字/值列表。
// PARAMETER 块的 Name 为空，Keys 为参数名（保留大小写）。
type Parsed struct {
	Name    string
	Command string
	// Like: "B" = SPACE LIKE "A" 形式引用的模板记录名（可为空）。
	Like   string
	Keys   []string
	Values []Value
	Line   int
}

type tokKind uint8

const (
	tokWord tokKind = iota
	tokQuoted
	tokEquals
	tokGroup
)

type token struct {
	kind tokKind
	text string
}

// ParseBlock 将单个块解析为 Parsed。
// 返回 ok=false 表示该块不产生记录（无关键字、或为无名全局指令如 "END .."），不视为错误。
// 仅在缺少命令关键字时返回 *ParseError；单个字段值畸形时按原样文本保留。
func ParseBlock(b Block) (Parsed, bool, error) {
	toks, err := lex(b)
	if err != nil {
		return Parsed{}, false, err
	}
	if len(toks) == 0 {
		return Parsed{}, false, nil
	}
	p := Parsed{Line: b.Line}

	head := toks[0]
	switch {
	case head.kind == tokWord && strings.EqualFold(head.text, CmdParameter):
		p.Command = CmdParameter
		p.Keys, p.Values = pairs(toks[1:], false)
		return p, len(p.Keys) > 0, nil
	case head.kind != tokQuoted:
		// 无名指令（INPUT/END/COMPUTE/STOP 等）不参与几何重建
		return Parsed{}, false, nil
	}

	p.Name = unquote(head.text)
	if len(toks) < 3 || toks[1].kind != tokEquals || toks[2].kind != tokWord {
		return Parsed{}, false, &ParseError{Line: b.Line, Msg: "missing command keyword for " + head.text}
	}
	p.Command = strings.ToUpper(toks[2].text)
	rest := toks[3:]
	if len(rest) >= 2 && rest[0].kind == tokWord && strings.EqualFold(rest[0].text, "LIKE") && rest[1].kind != tokEquals {
		p.Like = unquote(rest[1].text)
		rest = rest[2:]
	}
	p.Keys, p.Values = pairs(rest, true)
	if len(p.Keys) == 0 && p.Like == "" {
		return Parsed{}, false, nil
	}
	return p, true, nil
}

// pairs 依次提取 KEY = VALUE；缺少 '=' 的孤立记号跳过。
func pairs(toks []token, upperKeys bool) ([]string, []Value) {
	var keys []string
	var vals []Value
	for i := 0; i < len(toks); {
		k := toks[i]
		if k.kind == tokEquals || i+1 >= len(toks) || toks[i+1].kind != tokEquals {
			i++
			continue
		}
		key := unquote(k.text)
		if upperKeys {
			key = strings.ToUpper(key)
		}
		val := Text("")
		next := i + 2
		if next < len(toks) && toks[next].kind != tokEquals {
			val = ParseValue(toks[next].text)
			next++
		}
		keys = append(keys, key)
		vals = append(vals, val)
		i = next
	}
	return keys, vals
}

// lex 将块文本切分为记号：引号串、'='、括号/花括号/星号分组、裸词。
func lex(b Block) ([]token, error) {
	s := b.Text
	var out []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == ',':
			i++
		case c == '=':
			out = append(out, token{kind: tokEquals, text: "="})
			i++
		case c == '"':
			end := strings.IndexByte(s[i+1:], '"')
			if end < 0 {
				return nil, &ParseError{Line: b.Line, Msg: "unterminated quote"}
			}
			out = append(out, token{kind: tokQuoted, text: s[i : i+end+2]})
			i += end + 2
		case c == '(' || c == '{':
			end := matchGroup(s, i)
			out = append(out, token{kind: tokGroup, text: s[i:end]})
			i = end
		case c == '*':
			end := strings.IndexByte(s[i+1:], '*')
			if end < 0 {
				out = append(out, token{kind: tokWord, text: s[i:]})
				i = len(s)
				continue
			}
			out = append(out, token{kind: tokGroup, text: s[i : i+end+2]})
			i += end + 2
		default:
			end := wordEnd(s, i)
			out = append(out, token{kind: tokWord, text: s[i:end]})
			i = end
		}
	}
	return out, nil
}

// matchGroup 返回与 s[start] 处开括号配对的闭括号之后的位置；未配对时返回 len(s)。
func matchGroup(s string, start int) int {
	depth := 0
	inQuote := false
	for i := start; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(' || c == '{':
			depth++
		case c == ')' || c == '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(s)
}

// wordEnd: 裸词止于顶层空白、逗号或 '='；词内括号与引号整体保留。
func wordEnd(s string, start int) int {
	depth := 0
	inQuote := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (c == ' ' || c == '\t' || c == '\n' || c == ',' || c == '='):
			return i
		}
	}
	return len(s)
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
