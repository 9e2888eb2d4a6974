package game

import (
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/telemetry"
)

// PhysicsSystem продвигает симуляцию на время тика
type PhysicsSystem struct {
	name     string
	priority int
	host     *WorldHost
	logger   *log.Logger

	lastSubsteps int
}

// NewPhysicsSystem создает систему шага физики
func NewPhysicsSystem(host *WorldHost, logger *log.Logger) *PhysicsSystem {
	return &PhysicsSystem{
		name:     "PhysicsSystem",
		priority: 20, // После движения персонажей
		host:     host,
		logger:   logger,
	}
}

// Update выполняет StepSimulation
func (ps *PhysicsSystem) Update(deltaTime time.Duration) error {
	ps.host.Do(func(w *physics.World) {
		ps.lastSubsteps = w.StepSimulation(deltaTime.Seconds())
	})
	return nil
}

// LastSubsteps число подшагов последнего Update
func (ps *PhysicsSystem) LastSubsteps() int { return ps.lastSubsteps }

func (ps *PhysicsSystem) GetName() string { return ps.name }

func (ps *PhysicsSystem) GetPriority() int { return ps.priority }

// MovementSystem двигает персонажей по их инерционной силе
type MovementSystem struct {
	name     string
	priority int
	host     *WorldHost
	logger   *log.Logger

	// Вертикальная скорость падения по имени персонажа
	fall map[string]float64
}

// NewMovementSystem создает систему движения персонажей
func NewMovementSystem(host *WorldHost, logger *log.Logger) *MovementSystem {
	return &MovementSystem{
		name:     "MovementSystem",
		priority: 10,
		host:     host,
		logger:   logger,
		fall:     make(map[string]float64),
	}
}

// Update двигает всех персонажей мира
func (ms *MovementSystem) Update(deltaTime time.Duration) error {
	dt := deltaTime.Seconds()
	if dt <= 0 {
		return nil
	}
	ms.host.Do(func(w *physics.World) {
		alive := make(map[string]struct{})
		for _, actor := range w.Characters() {
			alive[actor.Name()] = struct{}{}
			ms.moveActor(w, actor, dt)
		}
		// Удаленные персонажи
		for name := range ms.fall {
			if _, ok := alive[name]; !ok {
				delete(ms.fall, name)
			}
		}
	})
	return nil
}

// moveActor выполняет один шаг движения. Горизонтальное перемещение
// останавливается о препятствие, вертикальное прижимается к земле.
func (ms *MovementSystem) moveActor(w *physics.World, actor *physics.Actor, dt float64) {
	force := actor.InertialForce()

	// Без коллизий персонаж летит как есть
	if !actor.CollisionMode() {
		actor.SetPosition(actor.Position().Add(force.Mul(dt)))
		actor.SetOnGround(false)
		delete(ms.fall, actor.Name())
		return
	}

	cfg := w.Config()
	half := actor.HalfExtents()
	pos := actor.Position()

	step := mgl64.Vec3{force[0], force[1], 0}.Mul(dt)
	if step.Len() > 1e-9 {
		center := actor.Body().Position()
		if hit, frac := w.SphereCast(half[0], center, center.Add(step)); hit {
			step = step.Mul(frac)
		}
		pos = pos.Add(step)
	}

	fall := ms.fall[actor.Name()]
	if !actor.OnGround() {
		fall += cfg.Gravity[2] * dt
	}
	vz := fall + force[2]
	target := pos[2] + vz*dt

	if vz > 0 {
		pos[2] = target
		actor.SetOnGround(false)
		ms.fall[actor.Name()] = fall
		actor.SetPosition(pos)
		return
	}

	// Луч вниз от середины персонажа до точки чуть ниже цели
	from := mgl64.Vec3{pos[0], pos[1], pos[2] + half[2]}
	to := mgl64.Vec3{pos[0], pos[1], target - cfg.StandingProbeDistance}
	res := w.RayTest(from, to, false, false)
	if res.Hit() {
		pos[2] = from[2] + (to[2]-from[2])*res.Fraction
		actor.SetOnGround(true)
		ms.fall[actor.Name()] = 0
	} else {
		pos[2] = target
		actor.SetOnGround(false)
		ms.fall[actor.Name()] = fall
	}
	actor.SetPosition(pos)
}

func (ms *MovementSystem) GetName() string { return ms.name }

func (ms *MovementSystem) GetPriority() int { return ms.priority }

// TelemetrySystem пишет положения персонажей в телеметрию и выводит сводку
type TelemetrySystem struct {
	name      string
	priority  int
	host      *WorldHost
	telemetry *telemetry.TelemetryManager

	sampleInterval time.Duration
	lastSample     time.Time
}

// NewTelemetrySystem создает систему телеметрии
func NewTelemetrySystem(host *WorldHost, tm *telemetry.TelemetryManager, sampleInterval time.Duration) *TelemetrySystem {
	return &TelemetrySystem{
		name:           "TelemetrySystem",
		priority:       200, // Очень низкий приоритет - метрики в самом конце
		host:           host,
		telemetry:      tm,
		sampleInterval: sampleInterval,
	}
}

func (ts *TelemetrySystem) Update(deltaTime time.Duration) error {
	now := time.Now()
	if now.Sub(ts.lastSample) >= ts.sampleInterval {
		ts.lastSample = now
		ts.host.Do(func(w *physics.World) {
			for _, actor := range w.Characters() {
				ts.telemetry.LogActorState(actor.Name(), actor.Position(), actor.OnGround())
			}
		})
	}
	ts.telemetry.PrintSummary()
	return nil
}

func (ts *TelemetrySystem) GetName() string { return ts.name }

func (ts *TelemetrySystem) GetPriority() int { return ts.priority }
