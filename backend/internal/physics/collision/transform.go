package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform размещает фигуру в родительской системе: сначала поворот, потом перенос
type Transform struct {
	Origin   mgl64.Vec3
	Rotation mgl64.Quat
}

func IdentityTransform() Transform {
	return Transform{Rotation: mgl64.QuatIdent()}
}

// NewTransform с нормализованным поворотом
func NewTransform(origin mgl64.Vec3, rotation mgl64.Quat) Transform {
	return Transform{Origin: origin, Rotation: rotation.Normalize()}
}

// Apply переводит локальную точку в родительскую систему
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(p).Add(t.Origin)
}

// ApplyInverse обратно в локальную систему
func (t Transform) ApplyInverse(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Conjugate().Rotate(p.Sub(t.Origin))
}

func (t Transform) RotateVec(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(v)
}

func (t Transform) InverseRotateVec(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Conjugate().Rotate(v)
}

// Mul композиция t с переносом, заданным в локальной системе t
func (t Transform) Mul(local Transform) Transform {
	return Transform{
		Origin:   t.Apply(local.Origin),
		Rotation: t.Rotation.Mul(local.Rotation).Normalize(),
	}
}

func (t Transform) Inverse() Transform {
	inv := t.Rotation.Conjugate()
	return Transform{Origin: inv.Rotate(t.Origin).Mul(-1), Rotation: inv}
}

func safeNormalize(v mgl64.Vec3, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-12 || math.IsNaN(l) {
		return fallback
	}
	return v.Mul(1 / l)
}

func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
