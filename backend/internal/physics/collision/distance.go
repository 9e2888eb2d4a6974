package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	sweepTolerance     = 1e-4
	maxSweepIterations = 256
	goldenIterations   = 60
)

// SignedDistance расстояние от локальной точки до поверхности s,
// внутри отрицательное, вместе с внешней нормалью ближайшего элемента.
// У террейна смотрятся треугольники в пределах maxDist, дальше возвращается maxDist.
func SignedDistance(s Shape, p mgl64.Vec3, maxDist float64) (float64, mgl64.Vec3) {
	switch v := s.(type) {
	case *Sphere:
		l := p.Len()
		return l - v.Radius, safeNormalize(p, mgl64.Vec3{0, 0, 1})
	case *Capsule:
		a, b := v.Segment()
		d := p.Sub(closestOnSegment(p, a, b))
		return d.Len() - v.Radius, safeNormalize(d, mgl64.Vec3{1, 0, 0})
	case *Box:
		return boxDistance(v.HalfExtents, p)
	case *HeightField:
		return heightFieldDistance(v, p, maxDist)
	case *Compound:
		best, bestN := math.Inf(1), mgl64.Vec3{0, 0, 1}
		for _, ch := range v.Children {
			d, n := SignedDistance(ch.Shape, ch.Transform.ApplyInverse(p), maxDist)
			if d < best {
				best, bestN = d, ch.Transform.RotateVec(n)
			}
		}
		if math.IsInf(best, 1) {
			return maxDist, bestN
		}
		return best, bestN
	}
	return maxDist, mgl64.Vec3{0, 0, 1}
}

func boxDistance(half, p mgl64.Vec3) (float64, mgl64.Vec3) {
	var q, outside mgl64.Vec3
	for i := 0; i < 3; i++ {
		q[i] = math.Abs(p[i]) - half[i]
		if q[i] > 0 {
			outside[i] = math.Copysign(q[i], p[i])
		}
	}
	if ol := outside.Len(); ol > 0 {
		return ol, outside.Mul(1 / ol)
	}
	axis := 0
	for i := 1; i < 3; i++ {
		if q[i] > q[axis] {
			axis = i
		}
	}
	var n mgl64.Vec3
	n[axis] = math.Copysign(1, p[axis])
	return q[axis], n
}

func heightFieldDistance(h *HeightField, p mgl64.Vec3, maxDist float64) (float64, mgl64.Vec3) {
	best, bestN := maxDist, mgl64.Vec3{0, 0, 1}
	h.EachTriangle(p[0]-maxDist, p[1]-maxDist, p[0]+maxDist, p[1]+maxDist, func(tri [3]mgl64.Vec3) bool {
		c := closestOnTriangle(p, tri)
		d := p.Sub(c)
		if l := d.Len(); l < best {
			best, bestN = l, safeNormalize(d, triangleUpNormal(tri))
		}
		return true
	})
	if z, n, ok := h.SurfaceAt(p[0], p[1]); ok && p[2] < z {
		depth := (z - p[2]) * n[2]
		return -depth, n
	}
	return best, bestN
}

func closestOnTriangle(p mgl64.Vec3, tri [3]mgl64.Vec3) mgl64.Vec3 {
	a, b, c := tri[0], tri[1], tri[2]
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}
	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		return b.Add(c.Sub(b).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}
	denom := 1 / (va + vb + vc)
	return a.Add(ab.Mul(vb * denom)).Add(ac.Mul(vc * denom))
}

// closestSegmentSegment ближайшие точки отрезков p1q1 и p2q2
func closestSegmentSegment(p1, q1, p2, q2 mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	d1, d2 := q1.Sub(p1), q2.Sub(p2)
	r := p1.Sub(p2)
	a, e, f := d1.Dot(d1), d2.Dot(d2), d2.Dot(r)
	const eps = 1e-12
	var s, t float64
	switch {
	case a <= eps && e <= eps:
		return p1, p2
	case a <= eps:
		t = mgl64.Clamp(f/e, 0, 1)
	default:
		c := d1.Dot(r)
		if e <= eps {
			s = mgl64.Clamp(-c/a, 0, 1)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom != 0 {
				s = mgl64.Clamp((b*f-c*e)/denom, 0, 1)
			}
			t = (b*s + f) / e
			if t < 0 {
				t, s = 0, mgl64.Clamp(-c/a, 0, 1)
			} else if t > 1 {
				t, s = 1, mgl64.Clamp((b-c)/a, 0, 1)
			}
		}
	}
	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

// minimizeOnSegment минимум выпуклой функции на [0, 1]
func minimizeOnSegment(f func(t float64) float64) float64 {
	const invPhi = 0.6180339887498949
	lo, hi := 0.0, 1.0
	x1 := hi - invPhi*(hi-lo)
	x2 := lo + invPhi*(hi-lo)
	f1, f2 := f(x1), f(x2)
	for i := 0; i < goldenIterations; i++ {
		if f1 < f2 {
			hi, x2, f2 = x2, x1, f1
			x1 = hi - invPhi*(hi-lo)
			f1 = f(x1)
		} else {
			lo, x1, f1 = x1, x2, f2
			x2 = lo + invPhi*(hi-lo)
			f2 = f(x2)
		}
	}
	t := (lo + hi) / 2
	if f(0) <= f(t) {
		t = 0
	}
	if f(1) < f(t) {
		t = 1
	}
	return t
}

// SphereSweep ведет сферу радиуса radius от from к to против s в t
// и возвращает первую долю пути с касанием. Сфера, начавшая
// в контакте, дает 0.
func SphereSweep(s Shape, t Transform, radius float64, from, to mgl64.Vec3) (Hit, bool) {
	lf, lt := t.ApplyInverse(from), t.ApplyInverse(to)
	d := lt.Sub(lf)
	length := d.Len()
	window := radius + math.Max(length, 1)

	frac := 0.0
	for i := 0; i < maxSweepIterations; i++ {
		p := lf.Add(d.Mul(frac))
		dist, n := SignedDistance(s, p, window)
		gap := dist - radius
		if gap <= sweepTolerance {
			return Hit{
				Fraction: frac,
				Point:    t.Apply(p.Sub(n.Mul(radius))),
				Normal:   t.RotateVec(n),
			}, true
		}
		if length < 1e-12 {
			return Hit{}, false
		}
		frac += gap / length
		if frac > 1 {
			return Hit{}, false
		}
	}
	return Hit{}, false
}
