package bdl

import (
	"math"
	"sort"
	"strings"
)

// 表面命令类型（SPACE 的直接子对象）。
const (
	CmdFloor           = "FLOOR"
	CmdSpace           = "SPACE"
	CmdPolygon         = "POLYGON"
	CmdExteriorWall    = "EXTERIOR-WALL"
	CmdInteriorWall    = "INTERIOR-WALL"
	CmdUndergroundWall = "UNDERGROUND-WALL"
	CmdRoof            = "ROOF"
	CmdWindow          = "WINDOW"
	CmdDoor            = "DOOR"
	CmdBuildParameters = "BUILD-PARAMETERS"
)

// SurfaceCommands 为参与房间重建的四类表面命令。
var SurfaceCommands = []string{CmdExteriorWall, CmdInteriorWall, CmdUndergroundWall, CmdRoof}

// ChildrenOf 返回 parent 作用域内全部 childCmd 记录。
// 作用域为半开区间 (parent.Index, next.Index)，next 为同命令类型中按序号的下一条记录（无则 +∞）。
// parent 不存在时返回空映射，不视为错误。
func ChildrenOf(t *Table, parentCmd, parentName, childCmd string) map[string]*Record {
	return ChildrenWithin(t, []string{parentCmd}, parentCmd, parentName, childCmd)
}

// ChildrenWithin 与 ChildrenOf 相同，但区间上界取 boundaryCmds 中任一类型的下一条记录。
// 用于把 WINDOW/DOOR 限定在其所属墙体与下一个任意表面之间。
func ChildrenWithin(t *Table, boundaryCmds []string, parentCmd, parentName, childCmd string) map[string]*Record {
	out := make(map[string]*Record)
	parent, ok := t.Lookup(parentCmd, parentName)
	if !ok {
		return out
	}
	start := parent.Index
	end := math.MaxInt
	for _, bc := range boundaryCmds {
		for _, r := range t.Records(bc) {
			if r.Index > start {
				if r.Index < end {
					end = r.Index
				}
				break
			}
		}
	}
	for _, r := range t.Records(childCmd) {
		if r.Index > start && r.Index < end {
			out[r.Name] = r
		}
	}
	return out
}

// SurfacesOf 汇总 SPACE 作用域内四类表面记录，按序号升序。
// 返回切片而非映射：不同命令类型允许同名。
func SurfacesOf(t *Table, spaceName string) []*Record {
	var out []*Record
	for _, cmd := range SurfaceCommands {
		for _, r := range ChildrenOf(t, CmdSpace, spaceName, cmd) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Sorted 将子记录映射按序号升序展开。
func Sorted(m map[string]*Record) []*Record {
	out := make([]*Record, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// IsSurface 判定命令是否为表面类型。
func IsSurface(cmd string) bool {
	cmd = strings.ToUpper(cmd)
	for _, c := range SurfaceCommands {
		if c == cmd {
			return true
		}
	}
	return false
}
