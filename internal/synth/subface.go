package synth

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"bdlgeom/internal/bdl"
	"bdlgeom/internal/geom"
	"bdlgeom/pkg/contract"
)

// PlaceSubFace 在墙底边 p0→p1 上放置 w×h 矩形：沿切向偏移 x，自 baseZ 向上偏移 y。
// 返回四角点 [b+t·x, b+t·(x+w), b+t·(x+w)+h·Ẑ, b+t·x+h·Ẑ]，b = (p0.x, p0.y, baseZ+y)。
// p0 与 p1 重合时返回 nil。
func PlaceSubFace(p0, p1 r3.Vec, baseZ, x, y, w, h float64) []r3.Vec {
	d := r3.Sub(p1, p0)
	d.Z = 0
	if r3.Norm(d) == 0 {
		return nil
	}
	tan := r3.Unit(d)
	b := r3.Vec{X: p0.X, Y: p0.Y, Z: baseZ + y}
	up := r3.Scale(h, geom.ZAxis)
	c0 := r3.Add(b, r3.Scale(x, tan))
	c1 := r3.Add(b, r3.Scale(x+w, tan))
	return []r3.Vec{c0, c1, r3.Add(c1, up), r3.Add(c0, up)}
}

// placeFlat 在水平面局部坐标系中放置矩形（天窗、地面门洞）。
func placeFlat(f geom.Frame, x, y, w, h float64) []r3.Vec {
	local := geom.Lift([][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}, 0)
	return geom.Transform(local, -f.Azimuth, f.Origin)
}

// subRect 读取 WINDOW/DOOR 的 X/Y/WIDTH/HEIGHT；宽高缺失或非正时返回 false。
func (b *roomBuilder) subRect(owner, sub *bdl.Record) (x, y, w, h float64, ok bool) {
	x, _ = b.t.Number(sub, "X")
	y, _ = b.t.Number(sub, "Y")
	w, okW := b.t.Number(sub, "WIDTH")
	h, okH := b.t.Number(sub, "HEIGHT")
	if !okW || !okH || w <= 0 || h <= 0 {
		b.issue(owner.Name, contract.ErrInvalidInput,
			fmt.Sprintf("%s %q: WIDTH/HEIGHT missing or not positive", sub.Command, sub.Name))
		return 0, 0, 0, 0, false
	}
	return x, y, w, h, true
}

// subFacesOf 返回归属于某围护面的窗与门（截止到下一个围护面/空间/楼层）。
func (b *roomBuilder) subFacesOf(owner *bdl.Record) (windows, doors []*bdl.Record) {
	bounds := append(append([]string{}, bdl.SurfaceCommands...), bdl.CmdSpace, bdl.CmdFloor)
	windows = bdl.Sorted(bdl.ChildrenWithin(b.t, bounds, owner.Command, owner.Name, bdl.CmdWindow))
	doors = bdl.Sorted(bdl.ChildrenWithin(b.t, bounds, owner.Command, owner.Name, bdl.CmdDoor))
	return windows, doors
}

// attachOnWall 将 owner 的窗门放置到世界坐标底边 p0→p1 上。
func (b *roomBuilder) attachOnWall(face *contract.Face, owner *bdl.Record, p0, p1 r3.Vec) {
	windows, doors := b.subFacesOf(owner)
	add := func(dst *[]contract.SubFace, subs []*bdl.Record) {
		for _, sub := range subs {
			x, y, w, h, ok := b.subRect(owner, sub)
			if !ok {
				continue
			}
			if pts := PlaceSubFace(p0, p1, p0.Z, x, y, w, h); pts != nil {
				*dst = append(*dst, contract.SubFace{ID: sub.Name, Boundary: points(pts)})
			}
		}
	}
	add(&face.Apertures, windows)
	add(&face.Doors, doors)
}

// attachFlat 将 owner 的窗门放置到水平面上（局部坐标系 f，随后进入空间变换链）。
func (b *roomBuilder) attachFlat(face *contract.Face, owner *bdl.Record, f geom.Frame, up bool) {
	windows, doors := b.subFacesOf(owner)
	add := func(dst *[]contract.SubFace, subs []*bdl.Record) {
		for _, sub := range subs {
			x, y, w, h, ok := b.subRect(owner, sub)
			if !ok {
				continue
			}
			pts := orient(b.toWorld(placeFlat(f, x, y, w, h)), up)
			*dst = append(*dst, contract.SubFace{ID: sub.Name, Boundary: points(pts)})
		}
	}
	add(&face.Apertures, windows)
	add(&face.Doors, doors)
}
