package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Hit пересечение луча или сферы в мировых координатах
type Hit struct {
	// Доля отрезка в [0, 1]
	Fraction float64
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
}

// RayCast пересекает отрезок from->to с s в t.
// Отрезок, начатый внутри выпуклой фигуры, попадания не дает.
func RayCast(s Shape, t Transform, from, to mgl64.Vec3) (Hit, bool) {
	lf, lt := t.ApplyInverse(from), t.ApplyInverse(to)
	frac, n, ok := rayCastLocal(s, lf, lt)
	if !ok {
		return Hit{}, false
	}
	return Hit{
		Fraction: frac,
		Point:    lerp(from, to, frac),
		Normal:   t.RotateVec(n),
	}, true
}

func rayCastLocal(s Shape, from, to mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	switch v := s.(type) {
	case *Sphere:
		return raySphere(from, to, mgl64.Vec3{}, v.Radius)
	case *Box:
		return rayBox(from, to, v.HalfExtents)
	case *Capsule:
		return rayCapsule(from, to, v)
	case *HeightField:
		return rayHeightField(from, to, v)
	case *Compound:
		best, bestN, found := 2.0, mgl64.Vec3{}, false
		for _, ch := range v.Children {
			f, n, ok := rayCastLocal(ch.Shape, ch.Transform.ApplyInverse(from), ch.Transform.ApplyInverse(to))
			if ok && f < best {
				best, bestN, found = f, ch.Transform.RotateVec(n), true
			}
		}
		return best, bestN, found
	}
	return 0, mgl64.Vec3{}, false
}

func raySphere(from, to, center mgl64.Vec3, r float64) (float64, mgl64.Vec3, bool) {
	d := to.Sub(from)
	f := from.Sub(center)
	a := d.Dot(d)
	c := f.Dot(f) - r*r
	if a < 1e-18 || c <= 0 {
		return 0, mgl64.Vec3{}, false
	}
	b := f.Dot(d)
	disc := b*b - a*c
	if disc < 0 {
		return 0, mgl64.Vec3{}, false
	}
	t := (-b - math.Sqrt(disc)) / a
	if t < 0 || t > 1 {
		return 0, mgl64.Vec3{}, false
	}
	n := safeNormalize(f.Add(d.Mul(t)), mgl64.Vec3{0, 0, 1})
	return t, n, true
}

func rayBox(from, to, half mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	if math.Abs(from[0]) <= half[0] && math.Abs(from[1]) <= half[1] && math.Abs(from[2]) <= half[2] {
		return 0, mgl64.Vec3{}, false
	}
	d := to.Sub(from)
	tmin, tmax := 0.0, 1.0
	axis, sign := -1, 0.0
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if from[i] < -half[i] || from[i] > half[i] {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}
		inv := 1 / d[i]
		t1 := (-half[i] - from[i]) * inv
		t2 := (half[i] - from[i]) * inv
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1
		}
		if t1 > tmin {
			tmin, axis, sign = t1, i, s
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, mgl64.Vec3{}, false
		}
	}
	if axis < 0 {
		return 0, mgl64.Vec3{}, false
	}
	var n mgl64.Vec3
	n[axis] = sign
	return tmin, n, true
}

func rayCapsule(from, to mgl64.Vec3, c *Capsule) (float64, mgl64.Vec3, bool) {
	a, b := c.Segment()
	if from.Sub(closestOnSegment(from, a, b)).Len() <= c.Radius {
		return 0, mgl64.Vec3{}, false
	}
	d := to.Sub(from)
	best, bestN, found := 2.0, mgl64.Vec3{}, false

	qa := d[0]*d[0] + d[1]*d[1]
	if qa > 1e-18 {
		qb := from[0]*d[0] + from[1]*d[1]
		qc := from[0]*from[0] + from[1]*from[1] - c.Radius*c.Radius
		if disc := qb*qb - qa*qc; disc >= 0 {
			t := (-qb - math.Sqrt(disc)) / qa
			if z := from[2] + d[2]*t; t >= 0 && t <= 1 && math.Abs(z) <= c.HalfHeight {
				p := from.Add(d.Mul(t))
				best, bestN, found = t, safeNormalize(mgl64.Vec3{p[0], p[1], 0}, mgl64.Vec3{1, 0, 0}), true
			}
		}
	}
	for _, end := range [2]mgl64.Vec3{a, b} {
		if t, n, ok := raySphere(from, to, end, c.Radius); ok && t < best {
			best, bestN, found = t, n, true
		}
	}
	return best, bestN, found
}

func rayHeightField(from, to mgl64.Vec3, h *HeightField) (float64, mgl64.Vec3, bool) {
	d := to.Sub(from)
	best, bestN, found := 2.0, mgl64.Vec3{}, false
	h.EachTriangle(math.Min(from[0], to[0]), math.Min(from[1], to[1]), math.Max(from[0], to[0]), math.Max(from[1], to[1]),
		func(tri [3]mgl64.Vec3) bool {
			if t, ok := rayTriangle(from, d, tri); ok && t < best {
				n := triangleUpNormal(tri)
				if n.Dot(d) > 0 {
					n = n.Mul(-1)
				}
				best, bestN, found = t, n, true
			}
			return true
		})
	return best, bestN, found
}

// rayTriangle двусторонний тест Моллера-Трумбора, возвращает долю отрезка
func rayTriangle(from, d mgl64.Vec3, tri [3]mgl64.Vec3) (float64, bool) {
	e1 := tri[1].Sub(tri[0])
	e2 := tri[2].Sub(tri[0])
	p := d.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < 1e-14 {
		return 0, false
	}
	inv := 1 / det
	s := from.Sub(tri[0])
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := d.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

func closestOnSegment(p, a, b mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	l := ab.Dot(ab)
	if l < 1e-18 {
		return a
	}
	t := mgl64.Clamp(p.Sub(a).Dot(ab)/l, 0, 1)
	return a.Add(ab.Mul(t))
}
