package synth

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"bdlgeom/internal/bdl"
	"bdlgeom/internal/geom"
	"bdlgeom/pkg/contract"
)

// roomBuilder 为单个 SPACE 的一次性重建上下文。
type roomBuilder struct {
	s     *Synthesizer
	t     *bdl.Table
	floor *bdl.Record
	space *bdl.Record
	bAz   float64

	footprint [][2]float64
	height    float64
	spaceF    geom.Frame
	floorF    geom.Frame
	issues    []Issue
}

func (b *roomBuilder) issue(surface string, err error, msg string) {
	b.issues = append(b.issues, Issue{Space: b.space.Name, Surface: surface, Err: err, Msg: msg})
}

func (b *roomBuilder) build() (contract.Room, bool) {
	switch shape := b.space.Text("SHAPE"); strings.ToUpper(strings.TrimSpace(shape)) {
	case "BOX":
		b.issue("", contract.ErrUnsupportedShape, "SHAPE = BOX")
		return contract.Room{}, false
	case "NO-SHAPE":
		b.issue("", contract.ErrDegenerateFootprint, "SHAPE = NO-SHAPE")
		return contract.Room{}, false
	}
	b.footprint = bdl.PolygonOf(b.t, b.space)
	if len(b.footprint) < 3 {
		b.issue("", contract.ErrDegenerateFootprint,
			fmt.Sprintf("footprint has %d vertices", len(b.footprint)))
		return contract.Room{}, false
	}
	b.height = b.spaceHeight()
	b.spaceF = b.frameOf(b.space)
	b.floorF = b.frameOf(b.floor)

	room := contract.Room{Name: b.space.Name, Story: b.floor.Name}
	surfaces := bdl.SurfacesOf(b.t, b.space.Name)
	if isDetailed(surfaces) {
		room.Faces = b.detailed(surfaces)
	} else {
		room.Faces = b.extruded(surfaces)
	}
	return room, true
}

// isDetailed: 围护面集合非空且每个面都带 POLYGON。
func isDetailed(surfaces []*bdl.Record) bool {
	if len(surfaces) == 0 {
		return false
	}
	for _, sf := range surfaces {
		if !sf.Has(bdl.CmdPolygon) {
			return false
		}
	}
	return true
}

// spaceHeight: SPACE.HEIGHT > FLOOR.SPACE-HEIGHT > FLOOR.FLOOR-HEIGHT > DefaultHeight。
// 非数值或非正值视为缺失，落到下一来源。
func (b *roomBuilder) spaceHeight() float64 {
	srcs := []struct {
		r   *bdl.Record
		key string
	}{
		{b.space, "HEIGHT"},
		{b.floor, "SPACE-HEIGHT"},
		{b.floor, "FLOOR-HEIGHT"},
	}
	for _, src := range srcs {
		if h, ok := b.t.Number(src.r, src.key); ok && h > 0 {
			return h
		}
	}
	return b.s.opts.DefaultHeight
}

func (b *roomBuilder) frameOf(r *bdl.Record) geom.Frame {
	x, _ := b.t.Number(r, "X")
	y, _ := b.t.Number(r, "Y")
	z, _ := b.t.Number(r, "Z")
	az, _ := b.t.Number(r, "AZIMUTH")
	return geom.Frame{Origin: r3.Vec{X: x, Y: y, Z: z}, Azimuth: az}
}

// wallFrame: 墙自身原点（缺省为空间首顶点，即锚点）与方位角。
func (b *roomBuilder) wallFrame(sf *bdl.Record) geom.Frame {
	x, okX := b.t.Number(sf, "X")
	y, okY := b.t.Number(sf, "Y")
	z, _ := b.t.Number(sf, "Z")
	if !okX && !okY {
		x, y = b.footprint[0][0], b.footprint[0][1]
	}
	az, _ := b.t.Number(sf, "AZIMUTH")
	return geom.Frame{Origin: r3.Vec{X: x, Y: y, Z: z}, Azimuth: az}
}

func (b *roomBuilder) toWorld(pts []r3.Vec) []r3.Vec {
	return geom.SpaceToWorld(pts, b.spaceF, b.floorF, b.bAz)
}

func location(sf *bdl.Record) string {
	return strings.ToUpper(strings.TrimSpace(sf.Text("LOCATION")))
}

// tiltOf: TILT > LOCATION(TOP=0, BOTTOM=180) > ROOF=0 / 其余 90，并折算到 [0, 180]。
func (b *roomBuilder) tiltOf(sf *bdl.Record) float64 {
	if t, ok := b.t.Number(sf, "TILT"); ok {
		return geom.NormalizeTilt(t)
	}
	switch location(sf) {
	case "TOP":
		return 0
	case "BOTTOM":
		return 180
	}
	if sf.Command == bdl.CmdRoof {
		return 0
	}
	return 90
}

// boundaryOf 按命令前缀推断边界条件。
func boundaryOf(cmd string) contract.BoundaryCondition {
	switch {
	case strings.HasPrefix(cmd, "INTERIOR"):
		return contract.Adiabatic
	case strings.HasPrefix(cmd, "UNDERGROUND"):
		return contract.Ground
	default:
		return contract.Outdoors
	}
}

// orient 调整绕序使法向朝上（up）或朝下。
func orient(pts []r3.Vec, up bool) []r3.Vec {
	if (geom.Normal(pts).Z > 0) != up {
		return geom.Reverse(pts)
	}
	return pts
}

func quad(p0, p1 r3.Vec, h float64) []r3.Vec {
	up := r3.Scale(h, geom.ZAxis)
	return []r3.Vec{p0, p1, r3.Add(p1, up), r3.Add(p0, up)}
}

func points(vs []r3.Vec) []contract.Point3 {
	out := make([]contract.Point3, len(vs))
	for i, v := range vs {
		out[i] = contract.Point3{v.X, v.Y, v.Z}
	}
	return out
}
