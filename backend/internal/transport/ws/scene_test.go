package ws

import (
	"io"
	"log"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/world"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// newTestWorld мир с полом и ящиком
func newTestWorld(t *testing.T) *physics.World {
	t.Helper()
	lib := world.NewMeshLibrary()
	defs := []world.MeshDef{
		{ID: "floor", CollisionNode: true, Collision: []world.Primitive{{Type: world.PrimitiveBox, HalfExtents: mgl64.Vec3{10, 10, 0.5}}}},
		{ID: "crate", CollisionNode: true, Collision: []world.Primitive{{Type: world.PrimitiveBox, HalfExtents: mgl64.Vec3{1, 1, 1}}}},
	}
	for _, d := range defs {
		if err := lib.Add(d); err != nil {
			t.Fatalf("Failed to add mesh %s: %v", d.ID, err)
		}
	}
	w := physics.NewWorld(world.NewShapeLoader(lib, quietLogger()), physics.DefaultConfig(), quietLogger())
	for _, p := range []struct {
		mesh string
		pos  mgl64.Vec3
	}{{"floor", mgl64.Vec3{0, 0, -0.5}}, {"crate", mgl64.Vec3{0, 0, 1}}} {
		body := w.CreateAndAdjustRigidBody(p.mesh, p.mesh, 1, p.pos, mgl64.QuatIdent(), false, true)
		w.AddRigidBody(body, true, nil)
	}
	return w
}

func TestDebugScene_Nodes(t *testing.T) {
	scene := NewDebugScene()
	a := scene.CreateChildSceneNode("physics_debug")
	if b := scene.CreateChildSceneNode("physics_debug"); b != a {
		t.Error("Same name should return the same node")
	}
	a.CreateChildSceneNode("contacts")

	names := scene.NodeNames()
	if len(names) != 2 || names[0] != "physics_debug" || names[1] != "physics_debug/contacts" {
		t.Errorf("Unexpected nodes %v", names)
	}
	if frames := scene.Pending(); len(frames) != 0 {
		t.Errorf("Nodes without drawing should not produce frames, got %d", len(frames))
	}
}

func TestDebugScene_PendingFrames(t *testing.T) {
	scene := NewDebugScene()
	node := scene.CreateChildSceneNode("physics_debug")

	line := physics.DebugLine{From: mgl64.Vec3{0, 0, 0}, To: mgl64.Vec3{1, 0, 0}}
	node.DrawLines([]physics.DebugLine{line})
	node.DrawLines([]physics.DebugLine{line, line})

	frames := scene.Pending()
	if len(frames) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(frames))
	}
	// Отправляется только последнее состояние узла
	if len(frames[0].Lines) != 2 || frames[0].Frame != 2 {
		t.Errorf("Unexpected frame %+v", frames[0])
	}
	if frames := scene.Pending(); len(frames) != 0 {
		t.Errorf("Frame should be sent once, got %d", len(frames))
	}

	node.DrawLines(nil)
	frames = scene.Pending()
	if len(frames) != 1 || len(frames[0].Lines) != 0 {
		t.Fatalf("Clearing should produce an empty frame, got %+v", frames)
	}
	node.DrawLines(nil)
	if frames := scene.Pending(); len(frames) != 0 {
		t.Errorf("Repeated clear should not produce frames, got %d", len(frames))
	}

	snapshot := scene.Snapshot()
	if len(snapshot) != 1 || snapshot[0].Node != "physics_debug" {
		t.Errorf("Unexpected snapshot %+v", snapshot)
	}
}

func TestDebugScene_DrivenByWorld(t *testing.T) {
	w := newTestWorld(t)
	defer w.Close()
	scene := NewDebugScene()
	w.SetSceneRoot(scene)

	w.SetDebugRenderingMode(physics.DebugDrawWireframe)
	frames := scene.Pending()
	if len(frames) != 1 || len(frames[0].Lines) == 0 {
		t.Fatalf("Expected wireframe lines, got %+v", frames)
	}
	wireframe := len(frames[0].Lines)

	w.SetDebugRenderingMode(physics.DebugDrawWireframe | physics.DebugDrawAABB)
	frames = scene.Pending()
	if len(frames) != 1 || len(frames[0].Lines) <= wireframe {
		t.Errorf("AABB mode should add lines to %d", wireframe)
	}

	// Шаг симуляции перерисовывает узел
	w.StepSimulation(1.0 / 60)
	if frames := scene.Pending(); len(frames) != 1 {
		t.Errorf("Step should redraw, got %d frames", len(frames))
	}

	if w.ToggleDebugRendering() {
		t.Fatal("Toggle should switch rendering off")
	}
	frames = scene.Pending()
	if len(frames) != 1 || len(frames[0].Lines) != 0 {
		t.Errorf("Disabled rendering should clear the node, got %+v", frames)
	}
}
