package synth

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"bdlgeom/internal/bdl"
	"bdlgeom/internal/geom"
	"bdlgeom/pkg/contract"
)

// edgeInfo 为拉伸时单条轮廓边（或地板/顶棚）的临时分类结果。
type edgeInfo struct {
	id     string
	bc     contract.BoundaryCondition
	owners []*bdl.Record
}

func (e *edgeInfo) claim(sf *bdl.Record) {
	if len(e.owners) == 0 {
		e.id = sf.Name
		e.bc = boundaryOf(sf.Command)
	}
	e.owners = append(e.owners, sf)
}

// extruded 由轮廓 + 层高生成：地板（朝下）、顶棚（朝上）、每条边一面朝外的竖直墙。
// 同一条边被多个面锚定时，首个面决定 ID 与边界条件，其余面仅贡献窗门。
func (b *roomBuilder) extruded(surfaces []*bdl.Record) []contract.Face {
	n := len(b.footprint)
	edges := make([]edgeInfo, n)
	for i := range edges {
		edges[i] = edgeInfo{id: fmt.Sprintf("%s-W%d", b.space.Name, i+1), bc: contract.Outdoors}
	}
	floor := edgeInfo{id: b.space.Name + "-Floor", bc: contract.Outdoors}
	ceil := edgeInfo{id: b.space.Name + "-Ceiling", bc: contract.Outdoors}

	for _, sf := range surfaces {
		switch target := b.anchor(sf); target {
		case anchorNone:
			continue
		case anchorFloor:
			floor.claim(sf)
		case anchorCeiling:
			ceil.claim(sf)
		default:
			edges[target].claim(sf)
		}
	}

	H := b.height
	bottom := b.toWorld(geom.Lift(b.footprint, 0))
	top := b.toWorld(geom.Lift(b.footprint, H))

	faces := make([]contract.Face, 0, n+2)
	ff := contract.Face{ID: floor.id, Type: contract.FaceFloor, BoundaryCondition: floor.bc,
		Boundary: points(orient(bottom, false))}
	for _, o := range floor.owners {
		b.attachFlat(&ff, o, b.flatFrame(o, 0), false)
	}
	cf := contract.Face{ID: ceil.id, Type: contract.FaceRoofCeiling, BoundaryCondition: ceil.bc,
		Boundary: points(orient(top, true))}
	for _, o := range ceil.owners {
		b.attachFlat(&cf, o, b.flatFrame(o, H), true)
	}
	faces = append(faces, ff, cf)

	// 顺时针轮廓需反向取边，墙面法向才朝外；边序号（SPACE-V<n>）不变。
	cw := geom.Normal(bottom).Z < 0
	for i := 0; i < n; i++ {
		p0, p1 := bottom[i], bottom[(i+1)%n]
		if cw {
			p0, p1 = p1, p0
		}
		wf := contract.Face{ID: edges[i].id, Type: contract.FaceWall, BoundaryCondition: edges[i].bc,
			Boundary: points(quad(p0, p1, H))}
		for _, o := range edges[i].owners {
			b.attachOnWall(&wf, o, p0, p1)
		}
		faces = append(faces, wf)
	}
	return faces
}

const (
	anchorNone    = -1
	anchorFloor   = -2
	anchorCeiling = -3
)

// anchor 将围护面映射到轮廓边序号（或地板/顶棚）。
// 规则依次为：LOCATION=TOP/BOTTOM；LOCATION=SPACE-V<n> → 边 n-1；
// 无 LOCATION 的 ROOF → 顶棚；水平 TILT；X/Y 与局部轮廓顶点在容差内匹配。
// 全部失败记 ErrAnchorUnresolved，该边保持缺省 outdoors。
func (b *roomBuilder) anchor(sf *bdl.Record) int {
	loc := location(sf)
	switch {
	case loc == "TOP":
		return anchorCeiling
	case loc == "BOTTOM":
		return anchorFloor
	case strings.HasPrefix(loc, "SPACE-V"):
		n, err := strconv.Atoi(strings.TrimPrefix(loc, "SPACE-V"))
		if err != nil || n < 1 || n > len(b.footprint) {
			b.issue(sf.Name, contract.ErrAnchorUnresolved, fmt.Sprintf("LOCATION = %s out of range", loc))
			return anchorNone
		}
		return n - 1
	case loc == "" && sf.Command == bdl.CmdRoof:
		return anchorCeiling
	}
	if t, ok := b.t.Number(sf, "TILT"); ok && !geom.IsVertical(t) {
		if geom.NormalizeTilt(t) < 45 {
			return anchorCeiling
		}
		return anchorFloor
	}
	x, okX := b.t.Number(sf, "X")
	y, okY := b.t.Number(sf, "Y")
	if okX && okY {
		for i, v := range b.footprint {
			if geom.Near(v, [2]float64{x, y}, b.s.opts.Tolerance) {
				return i
			}
		}
		b.issue(sf.Name, contract.ErrAnchorUnresolved,
			fmt.Sprintf("X/Y (%g, %g) matches no footprint vertex", x, y))
		return anchorNone
	}
	b.issue(sf.Name, contract.ErrAnchorUnresolved, "no LOCATION and no X/Y")
	return anchorNone
}

// flatFrame: 水平面上窗门的局部坐标系，原点缺省为空间首顶点，高度固定为 z。
func (b *roomBuilder) flatFrame(sf *bdl.Record, z float64) geom.Frame {
	f := b.wallFrame(sf)
	f.Origin = r3.Vec{X: f.Origin.X, Y: f.Origin.Y, Z: z}
	return f
}
