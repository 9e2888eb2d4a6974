package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics/collision"
)

// Режимы отладочной отрисовки, комбинируются как биты
const (
	DebugDrawNone          = 0
	DebugDrawWireframe     = 1
	DebugDrawAABB          = 2
	DebugDrawContactPoints = 8
)

// DebugLine цветной отрезок в мировых координатах
type DebugLine struct {
	From  mgl64.Vec3 `json:"from"`
	To    mgl64.Vec3 `json:"to"`
	Color mgl64.Vec3 `json:"color"`
}

// SceneNode часть графа сцены, нужная отладочной отрисовке
type SceneNode interface {
	CreateChildSceneNode(name string) SceneNode
	// DrawLines заменяет линии узла, nil очищает
	DrawLines(lines []DebugLine)
}

var (
	colorStatic    = mgl64.Vec3{0, 1, 0}
	colorActor     = mgl64.Vec3{1, 1, 0}
	colorRaycast   = mgl64.Vec3{0.4, 0.4, 1}
	colorHeightMap = mgl64.Vec3{0.6, 0.4, 0.2}
	colorAABB      = mgl64.Vec3{1, 0, 0}
	colorContact   = mgl64.Vec3{1, 1, 1}
)

const contactNormalLength = 0.5

type debugDrawer struct {
	node  SceneNode
	world *dynamicsWorld
	mode  int
}

func newDebugDrawer(node SceneNode, w *dynamicsWorld) *debugDrawer {
	return &debugDrawer{node: node, world: w}
}

func (d *debugDrawer) setMode(mode int) { d.mode = mode }

// step перерисовывает мир в текущем режиме
func (d *debugDrawer) step() {
	if d.mode == DebugDrawNone {
		d.node.DrawLines(nil)
		return
	}
	var lines []DebugLine
	add := func(segs []collision.Line, color mgl64.Vec3) {
		for _, s := range segs {
			lines = append(lines, DebugLine{From: s.From, To: s.To, Color: color})
		}
	}
	for _, b := range d.world.sortedBodies() {
		if d.mode&DebugDrawWireframe != 0 {
			add(collision.Wireframe(b.shape, b.transform), bodyColor(b))
		}
		if d.mode&DebugDrawAABB != 0 {
			add(collision.BoxLines(b.aabb, collision.IdentityTransform()), colorAABB)
		}
	}
	if d.mode&DebugDrawContactPoints != 0 {
		for _, m := range d.world.solver.sorted() {
			for _, cp := range m.Points {
				lines = append(lines, DebugLine{
					From:  cp.PositionWorldOnB,
					To:    cp.PositionWorldOnB.Add(cp.NormalWorldOnB.Mul(contactNormalLength)),
					Color: colorContact,
				})
			}
		}
	}
	d.node.DrawLines(lines)
}

func (d *debugDrawer) release() {
	d.node.DrawLines(nil)
	d.world = nil
}

func bodyColor(b *RigidBody) mgl64.Vec3 {
	switch b.filter.Group {
	case CollisionActor:
		return colorActor
	case CollisionRaycasting:
		return colorRaycast
	case CollisionHeightMap:
		return colorHeightMap
	}
	return colorStatic
}
