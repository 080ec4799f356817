package bdl

import (
	"regexp"
	"sort"
	"strings"
)

// Table 为命令表：command → { unique name → *Record }，外加 PARAMETER 全局替换表。
// 一次解析构建，之后只读；可被多个 goroutine 并发读取。
type Table struct {
	commands map[string]map[string]*Record
	params   map[string]Value
	count    int
}

// session 为单次解析会话，持有顺序计数器；不存在进程级共享状态。
type session struct {
	next int
	t    *Table
}

// Parse 对原始 INP 文本执行 清洗 → 分块 → 块解析 → 建表。
func Parse(src string) (*Table, error) {
	blocks, err := Tokenize(Normalize(src))
	if err != nil {
		return nil, err
	}
	return Build(blocks)
}

// Build 按文件顺序消费块流构建命令表。
// PARAMETER 块写入全局替换表（后写覆盖）；其余记录写入 table[command][name]，
// 每条记录使计数器加一，保证跨类型顺序可用于作用域解析。
func Build(blocks []Block) (*Table, error) {
	s := &session{t: &Table{
		commands: make(map[string]map[string]*Record),
		params:   make(map[string]Value),
	}}
	for _, b := range blocks {
		p, ok, err := ParseBlock(b)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		s.add(p)
	}
	return s.t, nil
}

func (s *session) add(p Parsed) {
	if p.Command == CmdParameter {
		for i, k := range p.Keys {
			s.t.params[k] = p.Values[i]
		}
		return
	}
	byName := s.t.commands[p.Command]
	if byName == nil {
		byName = make(map[string]*Record)
		s.t.commands[p.Command] = byName
	}
	fields := make(map[string]Value, len(p.Keys))
	if p.Like != "" {
		if tpl, ok := byName[p.Like]; ok {
			for k, v := range tpl.Fields {
				fields[k] = v
			}
		}
	}
	for i, k := range p.Keys {
		fields[k] = p.Values[i]
	}
	byName[p.Name] = &Record{
		Name:    p.Name,
		Command: p.Command,
		Index:   s.next,
		Fields:  fields,
		Line:    p.Line,
	}
	s.next++
	s.t.count = s.next
}

// Len 返回已分配的序号总数（含被同名覆盖的记录）。
func (t *Table) Len() int { return t.count }

// Commands 返回表中出现的命令类型（字典序）。
func (t *Table) Commands() []string {
	out := make([]string, 0, len(t.commands))
	for c := range t.commands {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Records 返回某命令类型的全部记录，按 Index 升序（即源文件顺序）。
func (t *Table) Records(cmd string) []*Record {
	byName := t.commands[strings.ToUpper(cmd)]
	out := make([]*Record, 0, len(byName))
	for _, r := range byName {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Lookup 按命令类型与唯一名查找记录。
func (t *Table) Lookup(cmd, name string) (*Record, bool) {
	r, ok := t.commands[strings.ToUpper(cmd)][name]
	return r, ok
}

// Param 返回全局替换参数。
func (t *Table) Param(name string) (Value, bool) {
	v, ok := t.params[name]
	return v, ok
}

// Params 返回全局替换表的副本。
func (t *Table) Params() map[string]Value {
	out := make(map[string]Value, len(t.params))
	for k, v := range t.params {
		out[k] = v
	}
	return out
}

var paramRefRe = regexp.MustCompile(`^\{?\s*#[pP][aA]\(\s*"([^"]+)"\s*\)\s*\}?$`)

// Resolve 将形如 {#pa("NAME")} 的单参数引用替换为参数值；其余值原样返回。
func (t *Table) Resolve(v Value) Value {
	if v.Kind != KindText {
		return v
	}
	m := paramRefRe.FindStringSubmatch(strings.TrimSpace(v.Text))
	if m == nil {
		return v
	}
	if pv, ok := t.params[m[1]]; ok {
		return pv
	}
	return v
}

// Number 读取记录字段数值，必要时经参数表解析。
func (t *Table) Number(r *Record, key string) (float64, bool) {
	v, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	return t.Resolve(v).Float()
}
