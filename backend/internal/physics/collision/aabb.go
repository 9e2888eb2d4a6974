package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB ограничивающий бокс по осям
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

func AABBFromCenter(center, half mgl64.Vec3) AABB {
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// AABBFromPoints наименьший бокс, содержащий все точки
func AABBFromPoints(points ...mgl64.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	b := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.AddPoint(p)
	}
	return b
}

func (b AABB) AddPoint(p mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

func (b AABB) Merge(o AABB) AABB {
	return b.AddPoint(o.Min).AddPoint(o.Max)
}

// Expand расширяет бокс на d со всех сторон
func (b AABB) Expand(d float64) AABB {
	e := mgl64.Vec3{d, d, d}
	return AABB{Min: b.Min.Sub(e), Max: b.Max.Add(e)}
}

// Intersects пересечение боксов, касание считается
func (b AABB) Intersects(o AABB) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || o.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

func (b AABB) Contains(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) HalfExtents() mgl64.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Transformed бокс, охватывающий b после переноса t
func (b AABB) Transformed(t Transform) AABB {
	c := t.Apply(b.Center())
	h := b.HalfExtents()
	ex := t.RotateVec(mgl64.Vec3{1, 0, 0})
	ey := t.RotateVec(mgl64.Vec3{0, 1, 0})
	ez := t.RotateVec(mgl64.Vec3{0, 0, 1})
	var w mgl64.Vec3
	for i := 0; i < 3; i++ {
		w[i] = math.Abs(ex[i])*h[0] + math.Abs(ey[i])*h[1] + math.Abs(ez[i])*h[2]
	}
	return AABBFromCenter(c, w)
}

func (b AABB) Corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	for i := 0; i < 8; i++ {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				out[i][axis] = b.Max[axis]
			} else {
				out[i][axis] = b.Min[axis]
			}
		}
	}
	return out
}
