package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics/collision"
)

// Actor контроллер персонажа: капсула или бокс, которым управляет
// логика движения снаружи физического мира
type Actor struct {
	name string
	mesh string

	world *dynamicsWorld
	body  *RigidBody
	base  collision.Shape // без масштаба

	halfExtents     mgl64.Vec3
	meshTranslation mgl64.Vec3
	meshOrientation mgl64.Quat

	position mgl64.Vec3
	rotation mgl64.Quat
	scale    float64

	onGround      bool
	force         mgl64.Vec3
	collisionMode bool
	collisionBody bool
}

func newActor(name, mesh string, shapes ShapeProvider, dw *dynamicsWorld, tolerance float64,
	position mgl64.Vec3, rotation mgl64.Quat, scale float64) *Actor {
	a := &Actor{
		name:            name,
		mesh:            mesh,
		world:           dw,
		meshOrientation: mgl64.QuatIdent(),
		rotation:        mgl64.QuatIdent(),
		scale:           scale,
		collisionMode:   true,
		collisionBody:   true,
	}
	if half, trans, orient, ok := shapes.BoundingBox(mesh); ok {
		a.halfExtents = half
		a.meshTranslation = trans
		a.meshOrientation = orient
		if orient == (mgl64.Quat{}) {
			a.meshOrientation = mgl64.QuatIdent()
		}
	}

	a.base = actorShape(a.halfExtents, tolerance)
	a.body = NewRigidBody(name, a.base.Scaled(scale))
	a.body.kinematic = true

	a.position = position
	a.rotation = rotation
	a.updateTransform()

	dw.addRigidBody(a.body, actorFilter)
	return a
}

// actorShape выбирает капсулу по Z, если сечение квадратное и персонаж
// не ниже своей ширины. Иначе бокс.
func actorShape(half mgl64.Vec3, tolerance float64) collision.Shape {
	if math.Abs(half[0]-half[1]) < half[0]*tolerance && half[2] >= half[0] {
		return collision.NewCapsuleZ(half[0], half[2]*2-half[0]*2)
	}
	return collision.NewBox(half)
}

func (a *Actor) mustHaveBody() {
	if a.body == nil {
		panic(fmt.Sprintf("physics: actor %q has no body", a.name))
	}
}

func (a *Actor) updateTransform() {
	a.mustHaveBody()
	origin := a.position.Add(a.meshOrientation.Rotate(a.meshTranslation.Mul(a.scale)))
	a.body.SetWorldTransform(collision.NewTransform(origin, a.meshOrientation.Mul(a.rotation)))
}

func (a *Actor) Name() string { return a.name }

func (a *Actor) Mesh() string { return a.mesh }

// Body nil после удаления персонажа
func (a *Actor) Body() *RigidBody { return a.body }

func (a *Actor) Position() mgl64.Vec3 { return a.position }

func (a *Actor) SetPosition(p mgl64.Vec3) {
	a.mustHaveBody()
	a.position = p
	a.updateTransform()
}

func (a *Actor) Rotation() mgl64.Quat { return a.rotation }

func (a *Actor) SetRotation(q mgl64.Quat) {
	a.mustHaveBody()
	a.rotation = q
	a.updateTransform()
}

func (a *Actor) Scale() float64 { return a.scale }

func (a *Actor) SetScale(s float64) {
	a.mustHaveBody()
	a.scale = s
	a.body.setShape(a.base.Scaled(s))
	a.updateTransform()
}

// HalfExtents полуразмеры меша в текущем масштабе
func (a *Actor) HalfExtents() mgl64.Vec3 { return a.halfExtents.Mul(a.scale) }

func (a *Actor) IsCapsule() bool {
	_, ok := a.base.(*collision.Capsule)
	return ok
}

func (a *Actor) SetInertialForce(f mgl64.Vec3) { a.force = f }

func (a *Actor) InertialForce() mgl64.Vec3 { return a.force }

func (a *Actor) SetOnGround(grounded bool) { a.onGround = grounded }

func (a *Actor) OnGround() bool { return a.onGround }

// EnableCollisionMode флаг для логики движения: блокирует ли геометрия
// персонажа. Регистрацию тела не трогает.
func (a *Actor) EnableCollisionMode(enabled bool) { a.collisionMode = enabled }

func (a *Actor) CollisionMode() bool { return a.collisionMode }

// EnableCollisionBody переключает тело между полной группой актора и
// регистрацией только для лучей. Без смены режима ничего не делает.
func (a *Actor) EnableCollisionBody(enabled bool) {
	a.mustHaveBody()
	if enabled && !a.collisionBody {
		a.world.addRigidBody(a.body, actorFilter)
	}
	if !enabled && a.collisionBody {
		a.world.addRigidBody(a.body, ghostActorFilter)
	}
	a.collisionBody = enabled
}

func (a *Actor) CollisionBodyEnabled() bool { return a.collisionBody }

// release отцепляет тело от симуляции, дальше персонаж непригоден
func (a *Actor) release() {
	if a.body == nil {
		return
	}
	a.world.removeRigidBody(a.body)
	a.body = nil
}
