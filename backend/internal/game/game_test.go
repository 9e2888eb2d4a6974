package game

import (
	"errors"
	"io"
	"log"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/telemetry"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/world"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// Создаем тестовый мир с полом, стеной и мешами персонажей
func createTestHost(t *testing.T, cfg physics.Config) *WorldHost {
	t.Helper()
	lib := world.NewMeshLibrary()
	defs := []world.MeshDef{
		{ID: "meshes/base_anim.nif", Bounds: &world.Bounds{HalfExtents: mgl64.Vec3{0.5, 0.5, 1}, Translation: mgl64.Vec3{0, 0, 1}}},
		{ID: "floor", CollisionNode: true, Collision: []world.Primitive{{Type: world.PrimitiveBox, HalfExtents: mgl64.Vec3{50, 50, 0.5}}}},
		{ID: "wall", CollisionNode: true, Collision: []world.Primitive{{Type: world.PrimitiveBox, HalfExtents: mgl64.Vec3{0.5, 5, 5}}}},
		{ID: "crate", CollisionNode: true, Collision: []world.Primitive{{Type: world.PrimitiveBox, HalfExtents: mgl64.Vec3{1, 1, 1}}}},
	}
	for _, d := range defs {
		if err := lib.Add(d); err != nil {
			t.Fatalf("Failed to add mesh %s: %v", d.ID, err)
		}
	}
	w := physics.NewWorld(world.NewShapeLoader(lib, quietLogger()), cfg, quietLogger())
	host := NewWorldHost(w)
	t.Cleanup(host.Close)
	return host
}

func place(w *physics.World, mesh, name string, pos mgl64.Vec3) {
	body := w.CreateAndAdjustRigidBody(mesh, name, 1, pos, mgl64.QuatIdent(), false, true)
	w.AddRigidBody(body, true, nil)
}

func addFloor(host *WorldHost) {
	host.Do(func(w *physics.World) {
		place(w, "floor", "floor", mgl64.Vec3{0, 0, -0.5})
	})
}

func actorState(host *WorldHost, name string) (pos mgl64.Vec3, onGround bool) {
	host.Do(func(w *physics.World) {
		a := w.GetCharacter(name)
		pos, onGround = a.Position(), a.OnGround()
	})
	return pos, onGround
}

// recordingSystem записывает порядок вызовов
type recordingSystem struct {
	name     string
	priority int
	calls    *[]string
	err      error
	panicMsg string
}

func (r *recordingSystem) Update(time.Duration) error {
	*r.calls = append(*r.calls, r.name)
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	return r.err
}
func (r *recordingSystem) GetName() string  { return r.name }
func (r *recordingSystem) GetPriority() int { return r.priority }

func TestGameTicker_PriorityOrder(t *testing.T) {
	gt := NewGameTicker(60, quietLogger())
	var calls []string
	gt.RegisterSystem(&recordingSystem{name: "late", priority: 100, calls: &calls})
	gt.RegisterSystem(&recordingSystem{name: "early", priority: 1, calls: &calls})
	gt.RegisterSystem(&recordingSystem{name: "middle", priority: 50, calls: &calls})
	gt.RegisterSystem(&recordingSystem{name: "middle2", priority: 50, calls: &calls})

	gt.Tick(time.Millisecond)

	want := []string{"early", "middle", "middle2", "late"}
	if len(calls) != len(want) {
		t.Fatalf("Expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, calls)
		}
	}
	if gt.GetTickCount() != 1 {
		t.Errorf("Expected 1 tick, got %d", gt.GetTickCount())
	}
}

func TestGameTicker_RecoversFromPanic(t *testing.T) {
	gt := NewGameTicker(60, quietLogger())
	var calls []string
	gt.RegisterSystem(&recordingSystem{name: "broken", priority: 1, calls: &calls, panicMsg: "boom"})
	gt.RegisterSystem(&recordingSystem{name: "failing", priority: 2, calls: &calls, err: errors.New("bad")})
	gt.RegisterSystem(&recordingSystem{name: "healthy", priority: 3, calls: &calls})

	gt.Tick(time.Millisecond)
	gt.Tick(time.Millisecond)

	if len(calls) != 6 {
		t.Fatalf("All systems should run every tick, got %v", calls)
	}
	broken, _ := gt.GetSystemMetrics("broken")
	failing, _ := gt.GetSystemMetrics("failing")
	healthy, _ := gt.GetSystemMetrics("healthy")
	if broken.Errors != 2 || failing.Errors != 2 || healthy.Errors != 0 {
		t.Errorf("Unexpected error counters: %d %d %d", broken.Errors, failing.Errors, healthy.Errors)
	}
	if healthy.TotalExecutions != 2 {
		t.Errorf("Expected 2 executions, got %d", healthy.TotalExecutions)
	}
	if _, ok := gt.GetSystemMetrics("missing"); ok {
		t.Error("Unknown system should have no metrics")
	}
}

// countingSystem потокобезопасный счетчик вызовов
type countingSystem struct {
	mu    sync.Mutex
	count int
}

func (c *countingSystem) Update(time.Duration) error {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
	return nil
}
func (c *countingSystem) GetName() string  { return "counter" }
func (c *countingSystem) GetPriority() int { return 0 }
func (c *countingSystem) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func TestGameTicker_StartStop(t *testing.T) {
	gt := NewGameTicker(200, quietLogger())
	counter := &countingSystem{}
	gt.RegisterSystem(counter)

	if err := gt.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	gt.Stop()

	ticks := counter.get()
	if ticks == 0 {
		t.Fatal("Loop did not tick")
	}
	time.Sleep(30 * time.Millisecond)
	if counter.get() != ticks {
		t.Error("Loop kept ticking after Stop")
	}
	if err := gt.Start(); err == nil {
		t.Error("Restart after Stop should fail")
	}
	if gt.GetStats().Running {
		t.Error("Stats report a stopped ticker as running")
	}
}

func TestGameTicker_Pause(t *testing.T) {
	gt := NewGameTicker(200, quietLogger())
	counter := &countingSystem{}
	gt.RegisterSystem(counter)
	gt.Pause()
	if err := gt.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer gt.Stop()

	time.Sleep(60 * time.Millisecond)
	if n := counter.get(); n != 0 {
		t.Fatalf("Paused ticker ran %d ticks", n)
	}
	gt.Resume()
	time.Sleep(60 * time.Millisecond)
	if counter.get() == 0 {
		t.Error("Ticker did not resume")
	}
}

func TestWorldHost_Close(t *testing.T) {
	host := createTestHost(t, physics.DefaultConfig())
	if !host.Do(func(*physics.World) {}) {
		t.Fatal("Do should run before Close")
	}
	host.Close()
	called := false
	if host.Do(func(*physics.World) { called = true }) || called {
		t.Error("Do must not run after Close")
	}
	host.Close()
}

func TestPhysicsSystem_Substeps(t *testing.T) {
	cfg := physics.DefaultConfig()
	cfg.FixedTimeStep = 0.1
	cfg.MaxSubSteps = 3
	host := createTestHost(t, cfg)
	ps := NewPhysicsSystem(host, quietLogger())

	if err := ps.Update(250 * time.Millisecond); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if ps.LastSubsteps() != 2 {
		t.Errorf("Expected 2 substeps, got %d", ps.LastSubsteps())
	}
	if err := ps.Update(time.Second); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if ps.LastSubsteps() != 3 {
		t.Errorf("Expected clamp to 3 substeps, got %d", ps.LastSubsteps())
	}
}

func TestMovementSystem_WalksOnFloor(t *testing.T) {
	host := createTestHost(t, physics.DefaultConfig())
	addFloor(host)
	host.Do(func(w *physics.World) {
		a := w.AddCharacter("npc", "meshes/base_anim.nif", mgl64.Vec3{0, 0, 0}, 1, mgl64.QuatIdent())
		a.SetInertialForce(mgl64.Vec3{10, 0, 0})
	})
	ms := NewMovementSystem(host, quietLogger())

	if err := ms.Update(100 * time.Millisecond); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	pos, onGround := actorState(host, "npc")
	if !vecNear(pos, mgl64.Vec3{1, 0, 0}, 1e-6) {
		t.Errorf("Expected (1, 0, 0), got %v", pos)
	}
	if !onGround {
		t.Error("Actor on the floor should be grounded")
	}
}

func TestMovementSystem_BlockedByWall(t *testing.T) {
	host := createTestHost(t, physics.DefaultConfig())
	addFloor(host)
	host.Do(func(w *physics.World) {
		place(w, "wall", "wall", mgl64.Vec3{3, 0, 2})
		a := w.AddCharacter("npc", "meshes/base_anim.nif", mgl64.Vec3{0, 0, 0}, 1, mgl64.QuatIdent())
		a.SetInertialForce(mgl64.Vec3{50, 0, 0})
	})
	ms := NewMovementSystem(host, quietLogger())

	ms.Update(100 * time.Millisecond)
	pos, _ := actorState(host, "npc")
	// Стена начинается с x=2.5, радиус персонажа 0.5
	if math.Abs(pos[0]-2) > 1e-3 {
		t.Errorf("Actor should stop at x=2, got %v", pos)
	}

	ms.Update(100 * time.Millisecond)
	again, _ := actorState(host, "npc")
	if again[0] > 2+1e-3 {
		t.Errorf("Actor passed through the wall: %v", again)
	}
}

func TestMovementSystem_FallsToGround(t *testing.T) {
	host := createTestHost(t, physics.DefaultConfig())
	addFloor(host)
	host.Do(func(w *physics.World) {
		w.AddCharacter("npc", "meshes/base_anim.nif", mgl64.Vec3{0, 0, 10}, 1, mgl64.QuatIdent())
	})
	ms := NewMovementSystem(host, quietLogger())

	ms.Update(100 * time.Millisecond)
	pos, onGround := actorState(host, "npc")
	if onGround || pos[2] >= 10 {
		t.Fatalf("Actor should start falling, got %v grounded=%v", pos, onGround)
	}

	for i := 0; i < 30; i++ {
		ms.Update(100 * time.Millisecond)
	}
	pos, onGround = actorState(host, "npc")
	if !onGround || math.Abs(pos[2]) > 1e-6 {
		t.Errorf("Actor should land on the floor, got %v grounded=%v", pos, onGround)
	}
}

func TestMovementSystem_Noclip(t *testing.T) {
	host := createTestHost(t, physics.DefaultConfig())
	addFloor(host)
	host.Do(func(w *physics.World) {
		place(w, "wall", "wall", mgl64.Vec3{3, 0, 2})
		a := w.AddCharacter("npc", "meshes/base_anim.nif", mgl64.Vec3{0, 0, 0}, 1, mgl64.QuatIdent())
		a.EnableCollisionMode(false)
		a.SetInertialForce(mgl64.Vec3{10, 0, 4})
	})
	ms := NewMovementSystem(host, quietLogger())

	ms.Update(500 * time.Millisecond)
	pos, onGround := actorState(host, "npc")
	if !vecNear(pos, mgl64.Vec3{5, 0, 2}, 1e-9) || onGround {
		t.Errorf("Noclip actor should move freely, got %v grounded=%v", pos, onGround)
	}
}

type recordingListener struct {
	events []ContactEvent
}

func (r *recordingListener) OnContacts(events []ContactEvent) {
	r.events = append(r.events, events...)
}

func TestContactSystem(t *testing.T) {
	host := createTestHost(t, physics.DefaultConfig())
	host.Do(func(w *physics.World) {
		place(w, "crate", "crate", mgl64.Vec3{0, 0, 0})
		place(w, "crate", "pillar", mgl64.Vec3{1.5, 0, 0})
		place(w, "crate", "far", mgl64.Vec3{10, 0, 0})
	})
	cs := NewContactSystem(host, quietLogger())
	listener := &recordingListener{}
	cs.SetListener(listener)
	cs.Watch("crate")

	cs.Update(0)
	if len(listener.events) != 1 || listener.events[0] != (ContactEvent{Object: "crate", Other: "pillar", Began: true}) {
		t.Fatalf("Unexpected events %+v", listener.events)
	}
	if got := cs.Contacts("crate"); len(got) != 1 || got[0] != "pillar" {
		t.Errorf("Unexpected contacts %v", got)
	}

	// Без изменений событий нет
	cs.Update(0)
	if len(listener.events) != 1 {
		t.Errorf("Unchanged contacts produced events: %+v", listener.events)
	}

	host.Do(func(w *physics.World) {
		w.DeleteRigidBody("pillar")
	})
	cs.Update(0)
	if len(listener.events) != 2 || listener.events[1] != (ContactEvent{Object: "crate", Other: "pillar", Began: false}) {
		t.Errorf("Expected end of contact, got %+v", listener.events)
	}

	cs.Unwatch("crate")
	if got := cs.Contacts("crate"); len(got) != 0 {
		t.Errorf("Unwatched object still has contacts %v", got)
	}
}

func TestTelemetrySystem(t *testing.T) {
	host := createTestHost(t, physics.DefaultConfig())
	host.Do(func(w *physics.World) {
		w.AddCharacter("npc", "meshes/base_anim.nif", mgl64.Vec3{1, 2, 3}, 1, mgl64.QuatIdent())
	})
	tm := telemetry.NewTelemetryManager(10, time.Hour, quietLogger())
	ts := NewTelemetrySystem(host, tm, 0)

	if err := ts.Update(time.Millisecond); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	records := tm.Records()
	if len(records) != 1 || records[0].Name != "npc" || *records[0].Position != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("Unexpected records %+v", records)
	}
}

func TestTickerDrivesWorld(t *testing.T) {
	host := createTestHost(t, physics.DefaultConfig())
	addFloor(host)
	tm := telemetry.NewTelemetryManager(100, time.Hour, quietLogger())
	host.Do(func(w *physics.World) {
		w.SetMonitor(tm)
		w.AddCharacter("npc", "meshes/base_anim.nif", mgl64.Vec3{0, 0, 0.5}, 1, mgl64.QuatIdent())
	})

	gt := NewGameTicker(60, quietLogger())
	gt.RegisterSystem(NewPhysicsSystem(host, quietLogger()))
	gt.RegisterSystem(NewMovementSystem(host, quietLogger()))
	for i := 0; i < 5; i++ {
		gt.Tick(gt.TickDuration())
	}

	s := tm.Snapshot()
	if s.Steps != 5 {
		t.Errorf("Expected 5 recorded steps, got %d", s.Steps)
	}
	if q := s.Queries[physics.QueryRayTest]; q.Count != 5 || q.Hits != 5 {
		t.Errorf("Expected 5 ground probes that hit, got %+v", q)
	}
	if _, onGround := actorState(host, "npc"); !onGround {
		t.Error("Actor should settle on the floor")
	}
}

func TestPerformanceMonitor_Window(t *testing.T) {
	pm := NewPerformanceMonitor(3)
	pm.register("physics")
	for _, d := range []time.Duration{10, 20, 30, 40} {
		pm.recordExecution("physics", d*time.Millisecond)
	}
	pm.recordError("physics")
	pm.recordExecution("unknown", time.Second)

	m, ok := pm.Get("physics")
	if !ok {
		t.Fatal("Registered system has no metrics")
	}
	// Окно из трех: 20, 30, 40
	if m.AverageTime != 30*time.Millisecond {
		t.Errorf("Expected average 30ms, got %v", m.AverageTime)
	}
	if m.MaxTime != 40*time.Millisecond || m.LastTime != 40*time.Millisecond {
		t.Errorf("Unexpected max/last: %v %v", m.MaxTime, m.LastTime)
	}
	if m.TotalExecutions != 4 || m.Errors != 1 {
		t.Errorf("Unexpected counters: %+v", m)
	}
	if all := pm.All(); len(all) != 1 || all[0].Name != "physics" {
		t.Errorf("Unexpected systems: %+v", all)
	}
}

// vecNear сравнивает векторы по абсолютному расстоянию
func vecNear(a, b mgl64.Vec3, tol float64) bool { return a.Sub(b).Len() <= tol }
