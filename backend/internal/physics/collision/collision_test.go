package collision

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const eps = 1e-6

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func vecNear(a, b mgl64.Vec3, tol float64) bool { return a.Sub(b).Len() <= tol }

func at(x, y, z float64) Transform {
	return NewTransform(mgl64.Vec3{x, y, z}, mgl64.QuatIdent())
}

func flatTerrain(side int, spacing, height float64) *HeightField {
	samples := make([]float64, side*side)
	for i := range samples {
		samples[i] = height
	}
	return NewHeightField(samples, side, side, height, height, mgl64.Vec3{spacing, spacing, 1}, true)
}

func TestRayCastShapes(t *testing.T) {
	tests := []struct {
		name     string
		shape    Shape
		place    Transform
		from, to mgl64.Vec3
		wantHit  bool
		wantFrac float64
		wantN    mgl64.Vec3
	}{
		{"box through", NewBox(mgl64.Vec3{1, 1, 1}), at(0, 0, 0), mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, true, 0.4, mgl64.Vec3{-1, 0, 0}},
		{"box from above", NewBox(mgl64.Vec3{1, 1, 1}), at(0, 0, 0), mgl64.Vec3{0.5, 0.5, 5}, mgl64.Vec3{0.5, 0.5, -5}, true, 0.4, mgl64.Vec3{0, 0, 1}},
		{"box miss", NewBox(mgl64.Vec3{1, 1, 1}), at(0, 0, 0), mgl64.Vec3{-5, 3, 0}, mgl64.Vec3{5, 3, 0}, false, 0, mgl64.Vec3{}},
		{"box too short", NewBox(mgl64.Vec3{1, 1, 1}), at(0, 0, 0), mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{-3, 0, 0}, false, 0, mgl64.Vec3{}},
		{"box start inside", NewBox(mgl64.Vec3{1, 1, 1}), at(0, 0, 0), mgl64.Vec3{0, 0, 0}, mgl64.Vec3{5, 0, 0}, false, 0, mgl64.Vec3{}},
		{"translated box", NewBox(mgl64.Vec3{1, 1, 1}), at(10, 0, 0), mgl64.Vec3{0, 0, 0}, mgl64.Vec3{20, 0, 0}, true, 0.45, mgl64.Vec3{-1, 0, 0}},
		{"sphere", NewSphere(1), at(0, 0, 0), mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -5}, true, 0.4, mgl64.Vec3{0, 0, 1}},
		{"sphere start inside", NewSphere(1), at(0, 0, 0), mgl64.Vec3{0, 0, 0.5}, mgl64.Vec3{0, 0, -5}, false, 0, mgl64.Vec3{}},
		{"capsule side", NewCapsuleZ(0.5, 2), at(0, 0, 0), mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, true, 0.45, mgl64.Vec3{-1, 0, 0}},
		{"capsule top", NewCapsuleZ(0.5, 2), at(0, 0, 0), mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -5}, true, 0.35, mgl64.Vec3{0, 0, 1}},
		{"capsule start inside", NewCapsuleZ(0.5, 2), at(0, 0, 0), mgl64.Vec3{0, 0, 1.2}, mgl64.Vec3{0, 0, -5}, false, 0, mgl64.Vec3{}},
		{"terrain", flatTerrain(3, 1, 2), at(0, 0, 2), mgl64.Vec3{0.3, 0.2, 10}, mgl64.Vec3{0.3, 0.2, -10}, true, 0.4, mgl64.Vec3{0, 0, 1}},
		{"terrain outside tile", flatTerrain(3, 1, 2), at(0, 0, 2), mgl64.Vec3{5, 5, 10}, mgl64.Vec3{5, 5, -10}, false, 0, mgl64.Vec3{}},
		{"terrain from below", flatTerrain(3, 1, 0), at(0, 0, 0), mgl64.Vec3{0.3, 0.2, -5}, mgl64.Vec3{0.3, 0.2, 5}, true, 0.5, mgl64.Vec3{0, 0, -1}},
		{"compound nearest child", NewCompound(
			Child{Transform: at(-3, 0, 0), Shape: NewBox(mgl64.Vec3{1, 1, 1})},
			Child{Transform: at(3, 0, 0), Shape: NewBox(mgl64.Vec3{1, 1, 1})},
		), at(0, 0, 0), mgl64.Vec3{-10, 0, 0}, mgl64.Vec3{10, 0, 0}, true, 0.3, mgl64.Vec3{-1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := RayCast(tt.shape, tt.place, tt.from, tt.to)
			if ok != tt.wantHit {
				t.Fatalf("hit = %v, want %v", ok, tt.wantHit)
			}
			if !ok {
				return
			}
			if !near(hit.Fraction, tt.wantFrac, eps) {
				t.Errorf("fraction = %v, want %v", hit.Fraction, tt.wantFrac)
			}
			if !vecNear(hit.Normal, tt.wantN, 1e-6) {
				t.Errorf("normal = %v, want %v", hit.Normal, tt.wantN)
			}
		})
	}
}

func TestRayCastRotatedBox(t *testing.T) {
	box := NewBox(mgl64.Vec3{2, 0.5, 0.5})
	place := NewTransform(mgl64.Vec3{}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))

	hit, ok := RayCast(box, place, mgl64.Vec3{0, -10, 0}, mgl64.Vec3{0, 10, 0})
	if !ok {
		t.Fatal("expected hit on rotated box")
	}
	if !near(hit.Fraction, 0.4, eps) {
		t.Errorf("fraction = %v, want 0.4", hit.Fraction)
	}
	if !vecNear(hit.Point, mgl64.Vec3{0, -2, 0}, 1e-6) {
		t.Errorf("point = %v", hit.Point)
	}
}

func TestHeightFieldLayout(t *testing.T) {
	// Высота растет с номером столбца
	samples := []float64{
		0, 1, 2,
		0, 1, 2,
		0, 1, 2,
	}
	h := NewHeightField(samples, 3, 3, 0, 2, mgl64.Vec3{1, 1, 1}, true)

	if got := h.Vertex(2, 0); !vecNear(got, mgl64.Vec3{1, -1, 1}, eps) {
		t.Errorf("vertex(2,0) = %v", got)
	}
	z, n, ok := h.SurfaceAt(0.5, 0.3)
	if !ok {
		t.Fatal("SurfaceAt outside grid")
	}
	if !near(z, 0.5, eps) {
		t.Errorf("z = %v, want 0.5", z)
	}
	if n[2] <= 0 {
		t.Errorf("normal %v not facing up", n)
	}
	if _, _, ok := h.SurfaceAt(3, 0); ok {
		t.Error("SurfaceAt beyond the grid should fail")
	}
	box := h.LocalAABB()
	if !vecNear(box.Min, mgl64.Vec3{-1, -1, -1}, eps) || !vecNear(box.Max, mgl64.Vec3{1, 1, 1}, eps) {
		t.Errorf("aabb = %+v", box)
	}
}

func TestHeightFieldDiamondDiagonals(t *testing.T) {
	h := flatTerrain(3, 1, 0)
	even := h.CellTriangles(0, 0)
	if !vecNear(even[0][2], h.Vertex(1, 1), eps) {
		t.Errorf("even cell should split along (i,j)-(i+1,j+1): %v", even)
	}
	odd := h.CellTriangles(1, 0)
	if !vecNear(odd[0][1], h.Vertex(2, 0), eps) || !vecNear(odd[0][2], h.Vertex(1, 1), eps) {
		t.Errorf("odd cell should split along (i+1,j)-(i,j+1): %v", odd)
	}
}

func TestSphereSweep(t *testing.T) {
	box := NewBox(mgl64.Vec3{1, 1, 1})

	hit, ok := SphereSweep(box, at(0, 0, 0), 1, mgl64.Vec3{-10, 0, 0}, mgl64.Vec3{10, 0, 0})
	if !ok {
		t.Fatal("expected sweep hit")
	}
	if !near(hit.Fraction, 0.4, 1e-3) {
		t.Errorf("fraction = %v, want 0.4", hit.Fraction)
	}
	if !vecNear(hit.Normal, mgl64.Vec3{-1, 0, 0}, 1e-6) {
		t.Errorf("normal = %v", hit.Normal)
	}

	if _, ok := SphereSweep(box, at(0, 0, 0), 1, mgl64.Vec3{-10, 5, 0}, mgl64.Vec3{10, 5, 0}); ok {
		t.Error("sweep beside the box should miss")
	}
	if _, ok := SphereSweep(box, at(0, 0, 0), 1, mgl64.Vec3{-10, 0, 0}, mgl64.Vec3{-5, 0, 0}); ok {
		t.Error("short sweep should stop before the box")
	}

	start, ok := SphereSweep(box, at(0, 0, 0), 1, mgl64.Vec3{1.5, 0, 0}, mgl64.Vec3{10, 0, 0})
	if !ok || start.Fraction != 0 {
		t.Errorf("sweep starting in contact = %+v, %v; want fraction 0", start, ok)
	}
}

func TestSphereSweepTerrain(t *testing.T) {
	terrain := flatTerrain(5, 2, 0)
	hit, ok := SphereSweep(terrain, at(0, 0, 0), 0.5, mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -5})
	if !ok {
		t.Fatal("expected terrain hit")
	}
	if !near(hit.Fraction, 0.45, 1e-3) {
		t.Errorf("fraction = %v, want 0.45", hit.Fraction)
	}
	if hit.Normal[2] < 0.99 {
		t.Errorf("normal = %v, want up", hit.Normal)
	}
}

func collect(a Shape, ta Transform, b Shape, tb Transform, threshold float64) []ContactPoint {
	var out []ContactPoint
	Collide(a, ta, b, tb, threshold, func(cp ContactPoint) { out = append(out, cp) })
	return out
}

func TestCollideSpheres(t *testing.T) {
	got := collect(NewSphere(1), at(0, 0, 0), NewSphere(1), at(1.5, 0, 0), 0)
	if len(got) != 1 {
		t.Fatalf("contacts = %d, want 1", len(got))
	}
	cp := got[0]
	if !near(cp.Distance, -0.5, eps) {
		t.Errorf("distance = %v", cp.Distance)
	}
	if !vecNear(cp.NormalWorldOnB, mgl64.Vec3{-1, 0, 0}, eps) {
		t.Errorf("normal = %v", cp.NormalWorldOnB)
	}
	if !vecNear(cp.PositionWorldOnA, mgl64.Vec3{1, 0, 0}, eps) {
		t.Errorf("point on A = %v", cp.PositionWorldOnA)
	}
	if !vecNear(cp.PositionWorldOnB, mgl64.Vec3{0.5, 0, 0}, eps) {
		t.Errorf("point on B = %v", cp.PositionWorldOnB)
	}

	if got := collect(NewSphere(1), at(0, 0, 0), NewSphere(1), at(3, 0, 0), 0); len(got) != 0 {
		t.Errorf("separated spheres produced %d contacts", len(got))
	}
	if got := collect(NewSphere(1), at(0, 0, 0), NewSphere(1), at(3, 0, 0), 1.5); len(got) != 1 {
		t.Errorf("threshold should admit a separated pair, got %d", len(got))
	}
}

func TestCollideSphereBox(t *testing.T) {
	got := collect(NewSphere(1), at(0, 0, 1.5), NewBox(mgl64.Vec3{1, 1, 1}), at(0, 0, 0), 0)
	if len(got) != 1 {
		t.Fatalf("contacts = %d, want 1", len(got))
	}
	if !near(got[0].Distance, -0.5, 1e-6) {
		t.Errorf("distance = %v", got[0].Distance)
	}
	if !vecNear(got[0].NormalWorldOnB, mgl64.Vec3{0, 0, 1}, 1e-6) {
		t.Errorf("normal = %v", got[0].NormalWorldOnB)
	}
	if !vecNear(got[0].PositionWorldOnB, mgl64.Vec3{0, 0, 1}, 1e-6) {
		t.Errorf("point on B = %v", got[0].PositionWorldOnB)
	}

	// Та же пара с переставленными ролями дает зеркальный контакт
	swapped := collect(NewBox(mgl64.Vec3{1, 1, 1}), at(0, 0, 0), NewSphere(1), at(0, 0, 1.5), 0)
	if len(swapped) != 1 || !vecNear(swapped[0].NormalWorldOnB, mgl64.Vec3{0, 0, -1}, 1e-6) {
		t.Errorf("swapped contact = %+v", swapped)
	}
}

func TestCollideBoxes(t *testing.T) {
	got := collect(NewBox(mgl64.Vec3{0.5, 0.5, 0.5}), at(0, 0, 1.25), NewBox(mgl64.Vec3{1, 1, 1}), at(0, 0, 0), 0)
	if len(got) != 4 {
		t.Fatalf("contacts = %d, want 4", len(got))
	}
	for _, cp := range got {
		if !near(cp.Distance, -0.25, 1e-9) {
			t.Errorf("distance = %v", cp.Distance)
		}
		if !vecNear(cp.NormalWorldOnB, mgl64.Vec3{0, 0, 1}, 1e-9) {
			t.Errorf("normal = %v", cp.NormalWorldOnB)
		}
	}
	if got := collect(NewBox(mgl64.Vec3{0.5, 0.5, 0.5}), at(0, 0, 3), NewBox(mgl64.Vec3{1, 1, 1}), at(0, 0, 0), 0); len(got) != 0 {
		t.Errorf("separated boxes produced %d contacts", len(got))
	}
}

func TestCollideTerrain(t *testing.T) {
	terrain := flatTerrain(5, 2, 0)

	capsule := collect(NewCapsuleZ(0.5, 2), at(0, 0, 1.4), terrain, at(0, 0, 0), 0)
	if len(capsule) == 0 {
		t.Fatal("capsule resting in terrain produced no contacts")
	}
	deepest := capsule[0]
	for _, cp := range capsule[1:] {
		if cp.Distance < deepest.Distance {
			deepest = cp
		}
	}
	if !near(deepest.Distance, -0.1, 1e-6) {
		t.Errorf("capsule depth = %v, want -0.1", deepest.Distance)
	}
	if deepest.NormalWorldOnB[2] < 0.99 {
		t.Errorf("capsule normal = %v", deepest.NormalWorldOnB)
	}

	box := collect(NewBox(mgl64.Vec3{0.5, 0.5, 0.5}), at(0, 0, 0.4), terrain, at(0, 0, 0), 0)
	if len(box) < 4 {
		t.Fatalf("box contacts = %d, want at least 4", len(box))
	}
	for _, cp := range box {
		if !near(cp.Distance, -0.1, 1e-6) || cp.NormalWorldOnB[2] < 0.99 {
			t.Errorf("box contact = %+v", cp)
		}
	}

	if got := collect(NewSphere(1), at(0, 0, 5), terrain, at(0, 0, 0), 0); len(got) != 0 {
		t.Errorf("sphere above terrain produced %d contacts", len(got))
	}
	if got := collect(terrain, at(0, 0, 0), terrain, at(0, 0, 0), 1); len(got) != 0 {
		t.Errorf("terrain pair produced %d contacts", len(got))
	}
}

func TestCollideCompound(t *testing.T) {
	compound := NewCompound(
		Child{Transform: at(-5, 0, 0), Shape: NewSphere(1)},
		Child{Transform: at(5, 0, 0), Shape: NewSphere(1)},
	)
	got := collect(compound, at(0, 0, 0), NewBox(mgl64.Vec3{1, 1, 1}), at(5, 0, 1.5), 0)
	if len(got) != 1 {
		t.Fatalf("contacts = %d, want 1", len(got))
	}
	if got[0].PositionWorldOnA[0] < 4 {
		t.Errorf("contact should come from the right child: %+v", got[0])
	}
}

func TestAABBTransformed(t *testing.T) {
	box := NewBox(mgl64.Vec3{1, 1, 1}).LocalAABB()
	rotated := box.Transformed(NewTransform(mgl64.Vec3{10, 0, 0}, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1})))
	want := math.Sqrt2
	if !near(rotated.Max[0]-10, want, 1e-9) || !near(rotated.Max[1], want, 1e-9) || !near(rotated.Max[2], 1, 1e-9) {
		t.Errorf("rotated aabb = %+v", rotated)
	}
	if !rotated.Intersects(AABB{Min: mgl64.Vec3{11, 0, 0}, Max: mgl64.Vec3{12, 1, 1}}) {
		t.Error("expected overlap")
	}
	if rotated.Intersects(AABB{Min: mgl64.Vec3{20, 0, 0}, Max: mgl64.Vec3{21, 1, 1}}) {
		t.Error("unexpected overlap")
	}
}

func TestScaledShapes(t *testing.T) {
	c := NewCapsuleZ(1, 4).Scaled(2).(*Capsule)
	if c.Radius != 2 || c.HalfHeight != 4 {
		t.Errorf("scaled capsule = %+v", c)
	}
	box := c.LocalAABB()
	if box.Max[2] != 6 {
		t.Errorf("capsule aabb top = %v, want 6", box.Max[2])
	}
	comp := NewCompound(Child{Transform: at(1, 0, 0), Shape: NewSphere(1)}).Scaled(3).(*Compound)
	if comp.Children[0].Transform.Origin[0] != 3 || comp.Children[0].Shape.(*Sphere).Radius != 3 {
		t.Errorf("scaled compound = %+v", comp.Children[0])
	}
}

func TestWireframe(t *testing.T) {
	if got := len(Wireframe(NewBox(mgl64.Vec3{1, 1, 1}), at(0, 0, 0))); got != 12 {
		t.Errorf("box lines = %d, want 12", got)
	}
	if got := len(Wireframe(flatTerrain(3, 1, 0), at(0, 0, 0))); got != 4*2*3 {
		t.Errorf("terrain lines = %d, want 24", got)
	}
}
