package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics/collision"
)

// RigidBody именованный объект коллизии с нулевой массой
type RigidBody struct {
	name      string
	shape     collision.Shape
	transform collision.Transform
	placeable bool

	scaledBoxTranslation mgl64.Vec3
	boxRotation          mgl64.Quat

	// kinematic тела двигает вызывающий код, постоянные манифолды
	// получают только пары с таким телом
	kinematic bool

	// Заполнено, пока тело зарегистрировано в симуляции
	world  *dynamicsWorld
	proxy  *cp.Shape
	id     cp.HashValue
	filter Filter
	aabb   collision.AABB
}

// NewRigidBody создает незарегистрированное тело в начале координат
func NewRigidBody(name string, shape collision.Shape) *RigidBody {
	return &RigidBody{
		name:        name,
		shape:       shape,
		transform:   collision.IdentityTransform(),
		boxRotation: mgl64.QuatIdent(),
	}
}

func (b *RigidBody) Name() string { return b.name }

func (b *RigidBody) Shape() collision.Shape { return b.shape }

// Placeable отличает расставленные объекты от террейна
func (b *RigidBody) Placeable() bool { return b.placeable }

func (b *RigidBody) SetPlaceable(p bool) { b.placeable = p }

func (b *RigidBody) Transform() collision.Transform { return b.transform }

func (b *RigidBody) Position() mgl64.Vec3 { return b.transform.Origin }

func (b *RigidBody) Rotation() mgl64.Quat { return b.transform.Rotation }

// ScaledBoxTranslation смещение меша при последней подгонке
func (b *RigidBody) ScaledBoxTranslation() mgl64.Vec3 { return b.scaledBoxTranslation }

func (b *RigidBody) BoxRotation() mgl64.Quat { return b.boxRotation }

func (b *RigidBody) InWorld() bool { return b.world != nil }

// Filter группа и маска, с которыми тело зарегистрировано
func (b *RigidBody) Filter() Filter { return b.filter }

func (b *RigidBody) AABB() collision.AABB {
	return b.shape.LocalAABB().Transformed(b.transform)
}

// SetWorldTransform двигает тело и обновляет broadphase
func (b *RigidBody) SetWorldTransform(t collision.Transform) {
	b.transform = collision.NewTransform(t.Origin, t.Rotation)
	if b.world != nil {
		b.world.refresh(b)
	}
}

func (b *RigidBody) setShape(s collision.Shape) {
	b.shape = s
	if b.world != nil {
		b.world.refresh(b)
	}
}
