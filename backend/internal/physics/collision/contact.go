package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ContactPoint одна точка контакта фигур A и B
type ContactPoint struct {
	PositionWorldOnA mgl64.Vec3
	PositionWorldOnB mgl64.Vec3
	// NormalWorldOnB направлена от B к A
	NormalWorldOnB mgl64.Vec3
	// Distance отрицательна при проникновении
	Distance float64
}

func (c ContactPoint) Flipped() ContactPoint {
	return ContactPoint{
		PositionWorldOnA: c.PositionWorldOnB,
		PositionWorldOnB: c.PositionWorldOnA,
		NormalWorldOnB:   c.NormalWorldOnB.Mul(-1),
		Distance:         c.Distance,
	}
}

// Collide все точки контакта a (в ta) и b (в tb) с зазором
// не больше threshold. Два террейна не сталкиваются.
func Collide(a Shape, ta Transform, b Shape, tb Transform, threshold float64, fn func(ContactPoint)) {
	if ca, ok := a.(*Compound); ok {
		for _, ch := range ca.Children {
			Collide(ch.Shape, ta.Mul(ch.Transform), b, tb, threshold, fn)
		}
		return
	}
	if cb, ok := b.(*Compound); ok {
		for _, ch := range cb.Children {
			Collide(a, ta, ch.Shape, tb.Mul(ch.Transform), threshold, fn)
		}
		return
	}
	flip := func(cp ContactPoint) { fn(cp.Flipped()) }

	ha, aTerrain := a.(*HeightField)
	hb, bTerrain := b.(*HeightField)
	switch {
	case aTerrain && bTerrain:
		return
	case bTerrain:
		collideTerrain(a, ta, hb, tb, threshold, fn)
		return
	case aTerrain:
		collideTerrain(b, tb, ha, ta, threshold, flip)
		return
	}

	boxA, aBox := a.(*Box)
	boxB, bBox := b.(*Box)
	switch {
	case aBox && bBox:
		collideBoxes(boxA, ta, boxB, tb, threshold, fn)
	case bBox:
		collideRoundedBox(a, ta, boxB, tb, threshold, fn)
	case aBox:
		collideRoundedBox(b, tb, boxA, ta, threshold, flip)
	default:
		collideRounded(a, ta, b, tb, threshold, fn)
	}
}

func collideRounded(a Shape, ta Transform, b Shape, tb Transform, threshold float64, fn func(ContactPoint)) {
	a0, a1, ra, okA := roundedCore(a)
	b0, b1, rb, okB := roundedCore(b)
	if !okA || !okB {
		return
	}
	c1, c2 := closestSegmentSegment(ta.Apply(a0), ta.Apply(a1), tb.Apply(b0), tb.Apply(b1))
	v := c1.Sub(c2)
	dist := v.Len() - ra - rb
	if dist > threshold {
		return
	}
	n := safeNormalize(v, mgl64.Vec3{0, 0, 1})
	fn(ContactPoint{
		PositionWorldOnA: c1.Sub(n.Mul(ra)),
		PositionWorldOnB: c2.Add(n.Mul(rb)),
		NormalWorldOnB:   n,
		Distance:         dist,
	})
}

// collideRoundedBox сфера или капсула (A) против бокса (B)
func collideRoundedBox(a Shape, ta Transform, box *Box, tb Transform, threshold float64, fn func(ContactPoint)) {
	a0, a1, r, ok := roundedCore(a)
	if !ok {
		return
	}
	s0 := tb.ApplyInverse(ta.Apply(a0))
	s1 := tb.ApplyInverse(ta.Apply(a1))
	t := minimizeOnSegment(func(t float64) float64 {
		d, _ := boxDistance(box.HalfExtents, lerp(s0, s1, t))
		return d
	})
	p := lerp(s0, s1, t)
	sd, n := boxDistance(box.HalfExtents, p)
	dist := sd - r
	if dist > threshold {
		return
	}
	nw := tb.RotateVec(n)
	pw := tb.Apply(p)
	fn(ContactPoint{
		PositionWorldOnA: pw.Sub(nw.Mul(r)),
		PositionWorldOnB: tb.Apply(p.Sub(n.Mul(sd))),
		NormalWorldOnB:   nw,
		Distance:         dist,
	})
}

func collideBoxes(a *Box, ta Transform, b *Box, tb Transform, threshold float64, fn func(ContactPoint)) {
	axesA := [3]mgl64.Vec3{ta.RotateVec(mgl64.Vec3{1, 0, 0}), ta.RotateVec(mgl64.Vec3{0, 1, 0}), ta.RotateVec(mgl64.Vec3{0, 0, 1})}
	axesB := [3]mgl64.Vec3{tb.RotateVec(mgl64.Vec3{1, 0, 0}), tb.RotateVec(mgl64.Vec3{0, 1, 0}), tb.RotateVec(mgl64.Vec3{0, 0, 1})}
	axes := make([]mgl64.Vec3, 0, 15)
	axes = append(axes, axesA[:]...)
	axes = append(axes, axesB[:]...)
	for _, u := range axesA {
		for _, w := range axesB {
			if c := u.Cross(w); c.Len() > 1e-6 {
				axes = append(axes, c.Normalize())
			}
		}
	}
	project := func(axes [3]mgl64.Vec3, half mgl64.Vec3, l mgl64.Vec3) float64 {
		return half[0]*math.Abs(axes[0].Dot(l)) + half[1]*math.Abs(axes[1].Dot(l)) + half[2]*math.Abs(axes[2].Dot(l))
	}
	delta := ta.Origin.Sub(tb.Origin)
	minOverlap, minAxis := math.Inf(1), mgl64.Vec3{0, 0, 1}
	for _, l := range axes {
		d := delta.Dot(l)
		overlap := project(axesA, a.HalfExtents, l) + project(axesB, b.HalfExtents, l) - math.Abs(d)
		if overlap < -threshold {
			return
		}
		if overlap < minOverlap {
			minOverlap = overlap
			minAxis = l
			if d < 0 {
				minAxis = l.Mul(-1)
			}
		}
	}

	found := false
	for _, v := range a.LocalAABB().Corners() {
		vw := ta.Apply(v)
		local := tb.ApplyInverse(vw)
		sd, n := boxDistance(b.HalfExtents, local)
		if sd > threshold {
			continue
		}
		fn(ContactPoint{
			PositionWorldOnA: vw,
			PositionWorldOnB: tb.Apply(local.Sub(n.Mul(sd))),
			NormalWorldOnB:   tb.RotateVec(n),
			Distance:         sd,
		})
		found = true
	}
	for _, v := range b.LocalAABB().Corners() {
		vw := tb.Apply(v)
		local := ta.ApplyInverse(vw)
		sd, n := boxDistance(a.HalfExtents, local)
		if sd > threshold {
			continue
		}
		fn(ContactPoint{
			PositionWorldOnA: ta.Apply(local.Sub(n.Mul(sd))),
			PositionWorldOnB: vw,
			NormalWorldOnB:   ta.RotateVec(n).Mul(-1),
			Distance:         sd,
		})
		found = true
	}
	if found {
		return
	}
	// Ребро против ребра: самая глубокая точка A вдоль разделяющей оси
	pa := ta.Origin
	for i := 0; i < 3; i++ {
		pa = pa.Sub(axesA[i].Mul(math.Copysign(a.HalfExtents[i], axesA[i].Dot(minAxis))))
	}
	dist := -minOverlap
	fn(ContactPoint{
		PositionWorldOnA: pa,
		PositionWorldOnB: pa.Sub(minAxis.Mul(dist)),
		NormalWorldOnB:   minAxis,
		Distance:         dist,
	})
}

// collideTerrain выпуклая фигура (A) против террейна (B)
func collideTerrain(a Shape, ta Transform, h *HeightField, th Transform, threshold float64, fn func(ContactPoint)) {
	region := a.LocalAABB().Transformed(ta).Transformed(th.Inverse()).Expand(math.Max(threshold, 0))

	if box, ok := a.(*Box); ok {
		for _, v := range box.LocalAABB().Corners() {
			vw := ta.Apply(v)
			local := th.ApplyInverse(vw)
			z, n, ok := h.SurfaceAt(local[0], local[1])
			if !ok {
				continue
			}
			dist := (local[2] - z) * n[2]
			if dist > threshold {
				continue
			}
			nw := th.RotateVec(n)
			fn(ContactPoint{
				PositionWorldOnA: vw,
				PositionWorldOnB: vw.Sub(nw.Mul(dist)),
				NormalWorldOnB:   nw,
				Distance:         dist,
			})
		}
		i0, j0, i1, j1, ok := h.CellRange(region.Min[0], region.Min[1], region.Max[0], region.Max[1])
		if !ok {
			return
		}
		for j := j0; j <= j1+1; j++ {
			for i := i0; i <= i1+1; i++ {
				vw := th.Apply(h.Vertex(i, j))
				local := ta.ApplyInverse(vw)
				sd, n := boxDistance(box.HalfExtents, local)
				if sd >= 0 || sd > threshold {
					continue
				}
				fn(ContactPoint{
					PositionWorldOnA: ta.Apply(local.Sub(n.Mul(sd))),
					PositionWorldOnB: vw,
					NormalWorldOnB:   ta.RotateVec(n).Mul(-1),
					Distance:         sd,
				})
			}
		}
		return
	}

	a0, a1, r, ok := roundedCore(a)
	if !ok {
		return
	}
	s0 := th.ApplyInverse(ta.Apply(a0))
	s1 := th.ApplyInverse(ta.Apply(a1))
	h.EachTriangle(region.Min[0], region.Min[1], region.Max[0], region.Max[1], func(tri [3]mgl64.Vec3) bool {
		t := minimizeOnSegment(func(t float64) float64 {
			p := lerp(s0, s1, t)
			return p.Sub(closestOnTriangle(p, tri)).Len()
		})
		p := lerp(s0, s1, t)
		up := triangleUpNormal(tri)
		c := closestOnTriangle(p, tri)
		v := p.Sub(c)
		n := safeNormalize(v, up)
		dist := v.Len() - r
		plane := p.Sub(tri[0]).Dot(up)
		if _, _, over := triangleHeightAt(tri, p[0], p[1]); over && plane < 0 {
			n = up
			dist = plane - r
			c = p.Sub(up.Mul(plane))
		}
		if dist > threshold {
			return true
		}
		nw := th.RotateVec(n)
		fn(ContactPoint{
			PositionWorldOnA: th.Apply(p).Sub(nw.Mul(r)),
			PositionWorldOnB: th.Apply(c),
			NormalWorldOnB:   nw,
			Distance:         dist,
		})
		return true
	})
}
