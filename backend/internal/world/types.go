package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics/collision"
)

// PrimitiveType вид примитива коллизии в манифесте меша
type PrimitiveType string

const (
	PrimitiveBox     PrimitiveType = "box"
	PrimitiveSphere  PrimitiveType = "sphere"
	PrimitiveCapsule PrimitiveType = "capsule"
)

// Primitive одна фигура меша в его локальных координатах
type Primitive struct {
	Type        PrimitiveType `yaml:"type"`
	HalfExtents mgl64.Vec3    `yaml:"half_extents"`
	Radius      float64       `yaml:"radius"`
	// Height длина цилиндрической части капсулы (без полусфер)
	Height   float64    `yaml:"height"`
	Offset   mgl64.Vec3 `yaml:"offset"`
	Rotation mgl64.Vec3 `yaml:"rotation"` // градусы вокруг X, Y, Z
}

// Bounds ограничивающий бокс меша, из которого строятся акторы
type Bounds struct {
	HalfExtents mgl64.Vec3 `yaml:"half_extents"`
	Translation mgl64.Vec3 `yaml:"translation"`
	Rotation    mgl64.Vec3 `yaml:"rotation"`
}

// MeshDef описание меша: геометрия коллизии, геометрия для лучей и смещение бокса
type MeshDef struct {
	ID             string      `yaml:"id"`
	Bounds         *Bounds     `yaml:"bounds,omitempty"`
	BoxTranslation mgl64.Vec3  `yaml:"box_translation"`
	BoxRotation    mgl64.Vec3  `yaml:"box_rotation"`
	CollisionNode  bool        `yaml:"collision_node"`
	Collision      []Primitive `yaml:"collision"`
	Raycast        []Primitive `yaml:"raycast"`

	// source файл манифеста, из которого пришло описание
	source string
}

// Source возвращает путь манифеста, откуда загружен меш
func (d *MeshDef) Source() string { return d.source }

// Manifest содержимое одного YAML файла с мешами
type Manifest struct {
	Meshes []MeshDef `yaml:"meshes"`
}

// EulerToQuat переводит углы в градусах в кватернион (сначала X, затем Y, затем Z)
func EulerToQuat(deg mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(deg[0]), mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(mgl64.DegToRad(deg[1]), mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(mgl64.DegToRad(deg[2]), mgl64.Vec3{0, 0, 1})
	return qz.Mul(qy).Mul(qx).Normalize()
}

// Validate проверяет размеры примитива
func (p Primitive) Validate() error {
	switch p.Type {
	case PrimitiveBox:
		if p.HalfExtents[0] < 0 || p.HalfExtents[1] < 0 || p.HalfExtents[2] < 0 {
			return fmt.Errorf("box half extents must be non-negative, got %v", p.HalfExtents)
		}
	case PrimitiveSphere:
		if p.Radius <= 0 {
			return fmt.Errorf("sphere radius must be positive, got %v", p.Radius)
		}
	case PrimitiveCapsule:
		if p.Radius <= 0 || p.Height < 0 {
			return fmt.Errorf("capsule needs a positive radius and non-negative height, got r=%v h=%v", p.Radius, p.Height)
		}
	default:
		return fmt.Errorf("unknown primitive type %q", p.Type)
	}
	return nil
}

// Shape строит фигуру примитива без учета смещения
func (p Primitive) Shape() collision.Shape {
	switch p.Type {
	case PrimitiveSphere:
		return collision.NewSphere(p.Radius)
	case PrimitiveCapsule:
		return collision.NewCapsuleZ(p.Radius, p.Height)
	default:
		return collision.NewBox(p.HalfExtents)
	}
}

// Local смещение примитива внутри меша
func (p Primitive) Local() collision.Transform {
	return collision.NewTransform(p.Offset, EulerToQuat(p.Rotation))
}

// Validate проверяет описание меша целиком
func (d *MeshDef) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("mesh without id")
	}
	for i, p := range d.Collision {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("mesh %s: collision[%d]: %w", d.ID, i, err)
		}
	}
	for i, p := range d.Raycast {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("mesh %s: raycast[%d]: %w", d.ID, i, err)
		}
	}
	return nil
}
