package synth

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"bdlgeom/internal/bdl"
	"bdlgeom/internal/geom"
	"bdlgeom/pkg/contract"
)

// detailed 逐面变换带 POLYGON 的围护面：墙面坐标系 → 空间变换链。
// 竖直面的多边形视为平面折线，逐段按层高拉伸为四边形；水平面按倾角修正绕序。
func (b *roomBuilder) detailed(surfaces []*bdl.Record) []contract.Face {
	var faces []contract.Face
	for _, sf := range surfaces {
		poly := bdl.PolygonOf(b.t, sf)
		if len(poly) < 2 {
			b.issue(sf.Name, contract.ErrDegenerateFootprint,
				fmt.Sprintf("surface polygon has %d vertices", len(poly)))
			continue
		}
		wf := b.wallFrame(sf)
		tilt := b.tiltOf(sf)
		if geom.IsVertical(tilt) {
			faces = append(faces, b.detailedWalls(sf, poly, wf)...)
			continue
		}
		if len(poly) < 3 {
			b.issue(sf.Name, contract.ErrDegenerateFootprint, "horizontal surface needs 3 vertices")
			continue
		}
		faces = append(faces, b.detailedFlat(sf, poly, wf, tilt))
	}
	return faces
}

func (b *roomBuilder) detailedWalls(sf *bdl.Record, poly [][2]float64, wf geom.Frame) []contract.Face {
	base := b.toWorld(geom.Transform(geom.Lift(poly, 0), -wf.Azimuth, wf.Origin))
	segs := len(base) - 1
	bc := boundaryOf(sf.Command)
	faces := make([]contract.Face, 0, segs)
	for k := 0; k < segs; k++ {
		id := sf.Name
		if segs > 1 {
			id = fmt.Sprintf("%s-%d", sf.Name, k+1)
		}
		faces = append(faces, contract.Face{ID: id, Type: contract.FaceWall, BoundaryCondition: bc,
			Boundary: points(quad(base[k], base[k+1], b.height))})
	}
	b.attachAlong(faces, sf, base)
	return faces
}

// attachAlong 按累计长度把窗门分配到折线的对应段，X 换算为段内偏移。
func (b *roomBuilder) attachAlong(faces []contract.Face, sf *bdl.Record, base []r3.Vec) {
	windows, doors := b.subFacesOf(sf)
	place := func(sub *bdl.Record, door bool) {
		x, y, w, h, ok := b.subRect(sf, sub)
		if !ok {
			return
		}
		start := 0.0
		for k := 0; k < len(faces); k++ {
			l := r3.Norm(r3.Sub(base[k+1], base[k]))
			if x < start+l || k == len(faces)-1 {
				pts := PlaceSubFace(base[k], base[k+1], base[k].Z, x-start, y, w, h)
				if pts == nil {
					return
				}
				s := contract.SubFace{ID: sub.Name, Boundary: points(pts)}
				if door {
					faces[k].Doors = append(faces[k].Doors, s)
				} else {
					faces[k].Apertures = append(faces[k].Apertures, s)
				}
				return
			}
			start += l
		}
	}
	for _, w := range windows {
		place(w, false)
	}
	for _, d := range doors {
		place(d, true)
	}
}

func (b *roomBuilder) detailedFlat(sf *bdl.Record, poly [][2]float64, wf geom.Frame, tilt float64) contract.Face {
	up := tilt < 45
	pts := orient(b.toWorld(geom.Transform(geom.Lift(poly, 0), -wf.Azimuth, wf.Origin)), up)
	typ := contract.FaceFloor
	if up {
		typ = contract.FaceRoofCeiling
	}
	face := contract.Face{ID: sf.Name, Type: typ, BoundaryCondition: boundaryOf(sf.Command), Boundary: points(pts)}
	b.attachFlat(&face, sf, wf, up)
	return face
}
