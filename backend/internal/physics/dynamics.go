package physics

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics/collision"
)

// collisionConfiguration параметры narrowphase для диспетчера
type collisionConfiguration struct {
	contactThreshold float64
}

// dispatcher решает, каким парам нужна narrowphase, и запускает ее
type dispatcher struct {
	config *collisionConfiguration
}

func (d *dispatcher) needsCollision(a, b *RigidBody) bool {
	return a != b && a.filter.Accepts(b.filter)
}

func (d *dispatcher) collide(a, b *RigidBody, fn func(collision.ContactPoint)) {
	collision.Collide(a.shape, a.transform, b.shape, b.transform, d.config.contactThreshold, fn)
}

// Manifold точки контакта одной пары тел
type Manifold struct {
	BodyA  *RigidBody
	BodyB  *RigidBody
	Points []collision.ContactPoint
}

type pairKey struct {
	a, b *RigidBody
}

// contactSolver хранит манифолды последнего подшага.
// Массы нулевые, импульсы не применяются.
type contactSolver struct {
	manifolds map[pairKey]*Manifold
}

func newContactSolver() *contactSolver {
	return &contactSolver{manifolds: make(map[pairKey]*Manifold)}
}

// solve обновляет кэш: живые манифолды переиспользуются, устаревшие пары удаляются
func (s *contactSolver) solve(found map[pairKey][]collision.ContactPoint) {
	for key := range s.manifolds {
		if _, ok := found[key]; !ok {
			delete(s.manifolds, key)
		}
	}
	for key, points := range found {
		m, ok := s.manifolds[key]
		if !ok {
			m = &Manifold{BodyA: key.a, BodyB: key.b}
			s.manifolds[key] = m
		}
		m.Points = append(m.Points[:0], points...)
	}
}

func (s *contactSolver) forget(b *RigidBody) {
	for key := range s.manifolds {
		if key.a == b || key.b == b {
			delete(s.manifolds, key)
		}
	}
}

func (s *contactSolver) sorted() []*Manifold {
	out := make([]*Manifold, 0, len(s.manifolds))
	for _, m := range s.manifolds {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BodyA.name != out[j].BodyA.name {
			return out[i].BodyA.name < out[j].BodyA.name
		}
		return out[i].BodyB.name < out[j].BodyB.name
	})
	return out
}

// dynamicsWorld живая симуляция: зарегистрированные тела, их прокси
// в broadphase и часы подшагов
type dynamicsWorld struct {
	config     *collisionConfiguration
	dispatcher *dispatcher
	broadphase *broadphase
	solver     *contactSolver

	bodies    map[*RigidBody]struct{}
	localTime float64
}

func newDynamicsWorld(d *dispatcher, bp *broadphase, s *contactSolver, c *collisionConfiguration) *dynamicsWorld {
	return &dynamicsWorld{
		config:     c,
		dispatcher: d,
		broadphase: bp,
		solver:     s,
		bodies:     make(map[*RigidBody]struct{}),
	}
}

// addRigidBody регистрирует b с фильтром, при необходимости перерегистрирует
func (w *dynamicsWorld) addRigidBody(b *RigidBody, f Filter) {
	if b.world != nil {
		b.world.removeRigidBody(b)
	}
	b.filter = f
	b.world = w
	w.bodies[b] = struct{}{}
	w.broadphase.insert(b)
}

func (w *dynamicsWorld) removeRigidBody(b *RigidBody) {
	if b.world != w {
		return
	}
	w.broadphase.remove(b)
	w.solver.forget(b)
	delete(w.bodies, b)
	b.world = nil
}

func (w *dynamicsWorld) refresh(b *RigidBody) {
	w.broadphase.update(b)
}

func (w *dynamicsWorld) numCollisionObjects() int {
	return len(w.bodies)
}

// sortedBodies тела в порядке регистрации
func (w *dynamicsWorld) sortedBodies() []*RigidBody {
	out := make([]*RigidBody, 0, len(w.bodies))
	for b := range w.bodies {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// rayTest все принятые фильтром тела, задетые отрезком
func (w *dynamicsWorld) rayTest(from, to mgl64.Vec3, f Filter, fn func(*RigidBody, collision.Hit)) {
	w.broadphase.querySegment(from, to, 0, func(b *RigidBody) {
		if !f.Accepts(b.filter) {
			return
		}
		if hit, ok := collision.RayCast(b.shape, b.transform, from, to); ok {
			fn(b, hit)
		}
	})
}

// sphereSweepTest все принятые тела, задетые летящей сферой
func (w *dynamicsWorld) sphereSweepTest(radius float64, from, to mgl64.Vec3, f Filter, fn func(*RigidBody, collision.Hit)) {
	w.broadphase.querySegment(from, to, radius, func(b *RigidBody) {
		if !f.Accepts(b.filter) {
			return
		}
		if hit, ok := collision.SphereSweep(b.shape, b.transform, radius, from, to); ok {
			fn(b, hit)
		}
	})
}

// contactTest контакты obj со всеми принятыми телами.
// obj может быть не зарегистрирован, в точках контакта он тело A.
func (w *dynamicsWorld) contactTest(obj *RigidBody, f Filter, fn func(*RigidBody, collision.ContactPoint)) {
	box := obj.AABB().Expand(math.Max(w.config.contactThreshold, 0))
	w.broadphase.query(box, func(other *RigidBody) {
		if other == obj || !f.Accepts(other.filter) {
			return
		}
		w.dispatcher.collide(obj, other, func(cp collision.ContactPoint) {
			fn(other, cp)
		})
	})
}

// stepSimulation продвигает часы на dt фиксированными подшагами и возвращает
// их число. Время сверх maxSubSteps отбрасывается, остаток меньше подшага
// переносится на следующий вызов.
func (w *dynamicsWorld) stepSimulation(dt float64, maxSubSteps int, fixedTimeStep float64) int {
	if dt <= 0 || fixedTimeStep <= 0 {
		return 0
	}
	w.localTime += dt
	steps := 0
	if w.localTime >= fixedTimeStep {
		steps = int(w.localTime / fixedTimeStep)
		w.localTime -= float64(steps) * fixedTimeStep
	}
	if steps > maxSubSteps {
		steps = maxSubSteps
	}
	for i := 0; i < steps; i++ {
		w.internalSingleStep()
	}
	return steps
}

// internalSingleStep обновляет broadphase и пересобирает манифолды
// пересекающихся пар с кинематическим телом
func (w *dynamicsWorld) internalSingleStep() {
	for b := range w.bodies {
		w.broadphase.update(b)
	}
	found := make(map[pairKey][]collision.ContactPoint)
	margin := math.Max(w.config.contactThreshold, 0)
	for a := range w.bodies {
		if !a.kinematic {
			continue
		}
		w.broadphase.query(a.aabb.Expand(margin), func(b *RigidBody) {
			if !w.dispatcher.needsCollision(a, b) {
				return
			}
			key := pairKey{a: a, b: b}
			if b.kinematic && b.id < a.id {
				return
			}
			w.dispatcher.collide(a, b, func(cp collision.ContactPoint) {
				found[key] = append(found[key], cp)
			})
		})
	}
	w.solver.solve(found)
}

// release снимает все оставшиеся регистрации
func (w *dynamicsWorld) release() int {
	left := len(w.bodies)
	for b := range w.bodies {
		w.removeRigidBody(b)
	}
	return left
}
