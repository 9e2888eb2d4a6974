package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Line отрезок отладочной отрисовки в мировых координатах
type Line struct {
	From mgl64.Vec3
	To   mgl64.Vec3
}

const circleSegments = 12

// Wireframe каркас s в t
func Wireframe(s Shape, t Transform) []Line {
	switch v := s.(type) {
	case *Box:
		return BoxLines(v.LocalAABB(), t)
	case *Sphere:
		var out []Line
		out = append(out, circle(t, mgl64.Vec3{}, v.Radius, 0)...)
		out = append(out, circle(t, mgl64.Vec3{}, v.Radius, 1)...)
		return append(out, circle(t, mgl64.Vec3{}, v.Radius, 2)...)
	case *Capsule:
		a, b := v.Segment()
		var out []Line
		out = append(out, circle(t, a, v.Radius, 2)...)
		out = append(out, circle(t, b, v.Radius, 2)...)
		for _, off := range []mgl64.Vec3{{v.Radius, 0, 0}, {-v.Radius, 0, 0}, {0, v.Radius, 0}, {0, -v.Radius, 0}} {
			out = append(out, Line{From: t.Apply(a.Add(off)), To: t.Apply(b.Add(off))})
		}
		return out
	case *HeightField:
		var out []Line
		for j := 0; j < v.Length()-1; j++ {
			for i := 0; i < v.Width()-1; i++ {
				for _, tri := range v.CellTriangles(i, j) {
					out = append(out,
						Line{From: t.Apply(tri[0]), To: t.Apply(tri[1])},
						Line{From: t.Apply(tri[1]), To: t.Apply(tri[2])},
						Line{From: t.Apply(tri[2]), To: t.Apply(tri[0])})
				}
			}
		}
		return out
	case *Compound:
		var out []Line
		for _, ch := range v.Children {
			out = append(out, Wireframe(ch.Shape, t.Mul(ch.Transform))...)
		}
		return out
	}
	return nil
}

// BoxLines каркас AABB в t
func BoxLines(b AABB, t Transform) []Line {
	c := b.Corners()
	out := make([]Line, 0, 12)
	for i := 0; i < 8; i++ {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) == 0 {
				out = append(out, Line{From: t.Apply(c[i]), To: t.Apply(c[i|1<<axis])})
			}
		}
	}
	return out
}

// circle кольцо вокруг center, перпендикулярное axis
func circle(t Transform, center mgl64.Vec3, r float64, axis int) []Line {
	u, w := (axis+1)%3, (axis+2)%3
	point := func(k int) mgl64.Vec3 {
		a := 2 * math.Pi * float64(k) / circleSegments
		p := center
		p[u] += r * math.Cos(a)
		p[w] += r * math.Sin(a)
		return t.Apply(p)
	}
	out := make([]Line, 0, circleSegments)
	for k := 0; k < circleSegments; k++ {
		out = append(out, Line{From: point(k), To: point(k + 1)})
	}
	return out
}
