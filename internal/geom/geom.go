// Package geom 提供局部坐标系到世界坐标系的变换与多边形基础运算。
// 方位角以度为单位，绕世界 Z 轴，右手定则（逆时针为正）。
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ZAxis 为世界竖直方向。
var ZAxis = r3.Vec{Z: 1}

// Frame 为嵌套局部坐标系：原点 + 方位角（相对父坐标系）。
type Frame struct {
	Origin  r3.Vec
	Azimuth float64
}

// Transform 先绕原点按 azimuthDeg 旋转（绕 Z 轴），再平移 origin。
func Transform(pts []r3.Vec, azimuthDeg float64, origin r3.Vec) []r3.Vec {
	rot := r3.NewRotation(azimuthDeg*math.Pi/180, ZAxis)
	out := make([]r3.Vec, len(pts))
	for i, p := range pts {
		out[i] = r3.Add(rot.Rotate(p), origin)
	}
	return out
}

// SpaceToWorld 将空间局部坐标按固定三段顺序变换到世界坐标：
//  1. 旋转 -space.Azimuth 并平移 space.Origin，得到楼层局部坐标；
//  2. 旋转 -floor.Azimuth（不平移）；
//  3. 旋转 +buildingAz 并平移 floor.Origin。
//
// 顺序不可交换：交换 2/3 或先平移楼层原点都会得到“合法但错误”的几何。
func SpaceToWorld(pts []r3.Vec, space, floor Frame, buildingAz float64) []r3.Vec {
	floorLocal := Transform(pts, -space.Azimuth, space.Origin)
	derotated := Transform(floorLocal, -floor.Azimuth, r3.Vec{})
	return Transform(derotated, buildingAz, floor.Origin)
}

// Lift 将二维点提升到给定高度的三维点。
func Lift(pts [][2]float64, z float64) []r3.Vec {
	out := make([]r3.Vec, len(pts))
	for i, p := range pts {
		out[i] = r3.Vec{X: p[0], Y: p[1], Z: z}
	}
	return out
}

// Translate 返回整体平移 d 后的副本。
func Translate(pts []r3.Vec, d r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(pts))
	for i, p := range pts {
		out[i] = r3.Add(p, d)
	}
	return out
}

// Reverse 返回绕序反转后的副本。
func Reverse(pts []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// Normal 返回 Newell 法向（未归一化，模长为面积的两倍）。
func Normal(poly []r3.Vec) r3.Vec {
	var n r3.Vec
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// Area 返回平面多边形面积。
func Area(poly []r3.Vec) float64 {
	if len(poly) < 3 {
		return 0
	}
	return r3.Norm(Normal(poly)) / 2
}

// IsPlanar 判定全部顶点到平均平面的距离不超过 tol。
func IsPlanar(poly []r3.Vec, tol float64) bool {
	if len(poly) < 4 {
		return len(poly) == 3
	}
	n := Normal(poly)
	if r3.Norm(n) == 0 {
		return false
	}
	n = r3.Unit(n)
	var c r3.Vec
	for _, p := range poly {
		c = r3.Add(c, p)
	}
	c = r3.Scale(1/float64(len(poly)), c)
	for _, p := range poly {
		if math.Abs(r3.Dot(r3.Sub(p, c), n)) > tol {
			return false
		}
	}
	return true
}

// Tilt 返回法向与竖直向上方向的夹角（度）。零向量返回 0。
func Tilt(normal r3.Vec) float64 {
	l := r3.Norm(normal)
	if l == 0 {
		return 0
	}
	c := r3.Dot(normal, ZAxis) / l
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c) * 180 / math.Pi
}

// NormalizeTilt 将任意倾角折算到 [0, 180]，处理 180° 处的环绕（如 270 → 90，-10 → 10）。
func NormalizeTilt(t float64) float64 {
	t = math.Mod(t, 360)
	if t < 0 {
		t += 360
	}
	if t > 180 {
		t = 360 - t
	}
	return t
}

// IsVertical 判定折算后的倾角是否落在 [45, 135]。
func IsVertical(tilt float64) bool {
	t := NormalizeTilt(tilt)
	return t >= 45 && t <= 135
}

// Near 判定两点在 XY 平面内的距离不超过 tol。
func Near(a, b [2]float64, tol float64) bool {
	return math.Hypot(a[0]-b[0], a[1]-b[1]) <= tol
}
