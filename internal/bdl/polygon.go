package bdl

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	vertexKeyRe = regexp.MustCompile(`^V(\d+)$`)
	vertexValRe = regexp.MustCompile(`^\(\s*([^,()\s]+)\s*,\s*([^,()\s]+)\s*(?:,\s*[^,()]*)?\)$`)
)

// Vertices 从 POLYGON 记录提取二维顶点，按 V1..Vn 的数字序排列。
// 无法解析的顶点值跳过（保持宽松）。
func Vertices(r *Record) [][2]float64 {
	if r == nil {
		return nil
	}
	type vert struct {
		n    int
		x, y float64
	}
	var vs []vert
	for k, v := range r.Fields {
		km := vertexKeyRe.FindStringSubmatch(k)
		if km == nil {
			continue
		}
		n, _ := strconv.Atoi(km[1])
		vm := vertexValRe.FindStringSubmatch(strings.TrimSpace(v.String()))
		if vm == nil {
			continue
		}
		x, errX := strconv.ParseFloat(vm[1], 64)
		y, errY := strconv.ParseFloat(vm[2], 64)
		if errX != nil || errY != nil {
			continue
		}
		vs = append(vs, vert{n: n, x: x, y: y})
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i].n < vs[j].n })
	out := make([][2]float64, len(vs))
	for i, v := range vs {
		out[i] = [2]float64{v.x, v.y}
	}
	return out
}

// PolygonOf 解析 rec 的 POLYGON 引用并返回其顶点；无引用或目标缺失返回 nil。
func PolygonOf(t *Table, rec *Record) [][2]float64 {
	ref, ok := rec.Get(CmdPolygon)
	if !ok {
		return nil
	}
	p, ok := t.Lookup(CmdPolygon, t.Resolve(ref).String())
	if !ok {
		return nil
	}
	return Vertices(p)
}
