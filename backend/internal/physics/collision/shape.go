package collision

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind вид фигуры
type Kind int

const (
	KindBox Kind = iota
	KindSphere
	KindCapsule
	KindHeightField
	KindCompound
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindSphere:
		return "sphere"
	case KindCapsule:
		return "capsule"
	case KindHeightField:
		return "heightfield"
	case KindCompound:
		return "compound"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Shape геометрия коллизии в собственной системе координат.
// Фигуры неизменяемы, Scaled возвращает новую.
type Shape interface {
	Kind() Kind
	LocalAABB() AABB
	// Scaled копия с равномерным масштабом s
	Scaled(s float64) Shape
}

// Box с центром в начале координат
type Box struct {
	HalfExtents mgl64.Vec3
}

func NewBox(half mgl64.Vec3) *Box { return &Box{HalfExtents: half} }

func (b *Box) Kind() Kind { return KindBox }

func (b *Box) LocalAABB() AABB {
	return AABB{Min: b.HalfExtents.Mul(-1), Max: b.HalfExtents}
}

func (b *Box) Scaled(s float64) Shape { return &Box{HalfExtents: b.HalfExtents.Mul(s)} }

type Sphere struct {
	Radius float64
}

func NewSphere(radius float64) *Sphere { return &Sphere{Radius: radius} }

func (s *Sphere) Kind() Kind { return KindSphere }

func (s *Sphere) LocalAABB() AABB {
	r := s.Radius
	return AABB{Min: mgl64.Vec3{-r, -r, -r}, Max: mgl64.Vec3{r, r, r}}
}

func (s *Sphere) Scaled(f float64) Shape { return &Sphere{Radius: s.Radius * f} }

// Capsule капсула вдоль Z: цилиндр длины 2*HalfHeight с полусферами
type Capsule struct {
	Radius     float64
	HalfHeight float64
}

// NewCapsuleZ капсула по радиусу и длине цилиндра
func NewCapsuleZ(radius, height float64) *Capsule {
	if height < 0 {
		height = 0
	}
	return &Capsule{Radius: radius, HalfHeight: height / 2}
}

func (c *Capsule) Kind() Kind { return KindCapsule }

func (c *Capsule) LocalAABB() AABB {
	r := c.Radius
	z := c.HalfHeight + r
	return AABB{Min: mgl64.Vec3{-r, -r, -z}, Max: mgl64.Vec3{r, r, z}}
}

func (c *Capsule) Scaled(s float64) Shape {
	return &Capsule{Radius: c.Radius * s, HalfHeight: c.HalfHeight * s}
}

// Segment концы осевого отрезка капсулы
func (c *Capsule) Segment() (mgl64.Vec3, mgl64.Vec3) {
	return mgl64.Vec3{0, 0, -c.HalfHeight}, mgl64.Vec3{0, 0, c.HalfHeight}
}

// Child фигура внутри Compound со своим переносом
type Child struct {
	Transform Transform
	Shape     Shape
}

// Compound несколько фигур в одной системе координат
type Compound struct {
	Children []Child
}

func NewCompound(children ...Child) *Compound {
	return &Compound{Children: append([]Child(nil), children...)}
}

func (c *Compound) Kind() Kind { return KindCompound }

func (c *Compound) LocalAABB() AABB {
	if len(c.Children) == 0 {
		return AABB{}
	}
	box := c.Children[0].Shape.LocalAABB().Transformed(c.Children[0].Transform)
	for _, ch := range c.Children[1:] {
		box = box.Merge(ch.Shape.LocalAABB().Transformed(ch.Transform))
	}
	return box
}

func (c *Compound) Scaled(s float64) Shape {
	out := &Compound{Children: make([]Child, len(c.Children))}
	for i, ch := range c.Children {
		t := ch.Transform
		t.Origin = t.Origin.Mul(s)
		out.Children[i] = Child{Transform: t, Shape: ch.Shape.Scaled(s)}
	}
	return out
}

// roundedCore сфера или капсула как отрезок с радиусом
func roundedCore(s Shape) (a, b mgl64.Vec3, r float64, ok bool) {
	switch v := s.(type) {
	case *Sphere:
		return mgl64.Vec3{}, mgl64.Vec3{}, v.Radius, true
	case *Capsule:
		a, b = v.Segment()
		return a, b, v.Radius, true
	}
	return mgl64.Vec3{}, mgl64.Vec3{}, 0, false
}
