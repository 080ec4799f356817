package bdl

// Record 为单个已解析对象；构建完成后只读，调用方不得修改 Fields。
type Record struct {
	Name    string
	Command string
	// Index: 文件内全局递增的序号（跨命令类型共享计数器），PARAMETER 不占号。
	Index  int
	Fields map[string]Value
	// Line: 源文本中块的起始行。
	Line int
}

// Get 返回关键字对应的值（关键字按大写存储）。
func (r *Record) Get(key string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	v, ok := r.Fields[key]
	return v, ok
}

// Float 返回关键字的数值；文本或缺失返回 false。
func (r *Record) Float(key string) (float64, bool) {
	v, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	return v.Float()
}

// Text 返回关键字的文本形式；缺失返回空串。
func (r *Record) Text(key string) string {
	v, ok := r.Get(key)
	if !ok {
		return ""
	}
	return v.String()
}

// Has 判定关键字是否存在。
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}
