package bdl

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind 标识字段值的变体类型。
type Kind uint8

const (
	// KindText: 原样文本（列表/元组/表达式/引用名）。
	KindText Kind = iota
	// KindNumber: 整体可解析为数值的字面量。
	KindNumber
)

// Value 为字段值的标记变体：Number(float64) | Text(string)。
// 调用方按 Kind 分派，不做类型探测。
type Value struct {
	Kind Kind
	Num  float64
	Text string
}

// Number 构造数值变体。
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Text 构造文本变体。
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

var numberRe = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

// ParseValue 将原始值记号转换为 Value。
// 整体裁剪后为数值字面量时转为 Number；成对双引号包裹的标量去除外层引号；
// 其余（含 "( 1, 2 )" 等列表文本）原样保留。
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if numberRe.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Number(f)
		}
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' && strings.Count(s, `"`) == 2 {
		return Text(s[1 : len(s)-1])
	}
	return Text(s)
}

// Float 返回数值；文本变体返回 false。
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// String 返回值的文本形式（数值按最短表示）。
func (v Value) String() string {
	if v.Kind == KindNumber {
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	}
	return v.Text
}

// Upper 返回去空白后的大写文本（关键字型取值比较用）。
func (v Value) Upper() string {
	return strings.ToUpper(strings.TrimSpace(v.String()))
}
