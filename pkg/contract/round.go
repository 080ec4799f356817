package contract

import "math"

// Normalized 返回深拷贝：坐标按 digits 位小数四舍五入（digits<0 不取整，-0 归零），
// nil 切片替换为空切片，保证序列化结果确定且与 Schema 一致。
func (b Building) Normalized(digits int) Building {
	out := Building{FileID: b.FileID, Rooms: make([]Room, len(b.Rooms))}
	for i, r := range b.Rooms {
		nr := Room{Name: r.Name, Story: r.Story, Faces: make([]Face, len(r.Faces))}
		for j, f := range r.Faces {
			nf := f
			nf.Boundary = roundPoints(f.Boundary, digits)
			nf.Apertures = roundSubs(f.Apertures, digits)
			nf.Doors = roundSubs(f.Doors, digits)
			nr.Faces[j] = nf
		}
		out.Rooms[i] = nr
	}
	return out
}

func roundSubs(s []SubFace, digits int) []SubFace {
	out := make([]SubFace, len(s))
	for i, sf := range s {
		out[i] = SubFace{ID: sf.ID, Boundary: roundPoints(sf.Boundary, digits)}
	}
	return out
}

func roundPoints(ps []Point3, digits int) []Point3 {
	out := make([]Point3, len(ps))
	for i, p := range ps {
		for k := range p {
			out[i][k] = roundTo(p[k], digits)
		}
	}
	return out
}

func roundTo(v float64, digits int) float64 {
	if digits >= 0 {
		s := math.Pow(10, float64(digits))
		v = math.Round(v*s) / s
	}
	if v == 0 {
		return 0
	}
	return v
}
