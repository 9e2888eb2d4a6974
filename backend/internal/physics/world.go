package physics

import (
	"log"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics/collision"
)

// World владеет симуляцией и всеми телами, тайлами и персонажами в ней.
// Не потокобезопасен, доступ сериализует вызывающий код.
type World struct {
	cfg     Config
	shapes  ShapeProvider
	logger  *log.Logger
	monitor Monitor

	collisionConfig *collisionConfiguration
	dispatcher      *dispatcher
	broadphase      *broadphase
	solver          *contactSolver
	dynamics        *dynamicsWorld

	collisionObjects map[string]*RigidBody
	raycastObjects   map[string]*RigidBody
	heightFields     map[string]*HeightField
	actors           map[string]*Actor

	sceneRoot   SceneNode
	debugDrawer *debugDrawer
	debugMode   int

	// onRelease наблюдает за этапами закрытия
	onRelease func(stage string)
}

// NewWorld создает пустой мир, меши разрешаются через shapes
func NewWorld(shapes ShapeProvider, cfg Config, logger *log.Logger) *World {
	if logger == nil {
		logger = log.Default()
	}
	cfg = cfg.normalized()

	w := &World{
		cfg:              cfg,
		shapes:           shapes,
		logger:           logger,
		monitor:          nopMonitor{},
		collisionConfig:  &collisionConfiguration{contactThreshold: cfg.ContactThreshold},
		broadphase:       newBroadphase(),
		solver:           newContactSolver(),
		collisionObjects: make(map[string]*RigidBody),
		raycastObjects:   make(map[string]*RigidBody),
		heightFields:     make(map[string]*HeightField),
		actors:           make(map[string]*Actor),
	}
	w.dispatcher = &dispatcher{config: w.collisionConfig}
	w.dynamics = newDynamicsWorld(w.dispatcher, w.broadphase, w.solver, w.collisionConfig)
	return w
}

func (w *World) live() {
	if w.dynamics == nil {
		panic("physics: world used after Close")
	}
}

func (w *World) Config() Config { return w.cfg }

// SetConfig меняет настройки, накопленное время подшагов сохраняется
func (w *World) SetConfig(cfg Config) {
	w.live()
	w.cfg = cfg.normalized()
	w.collisionConfig.contactThreshold = w.cfg.ContactThreshold
}

// SetMonitor задает приемник статистики, nil отключает
func (w *World) SetMonitor(m Monitor) {
	if m == nil {
		m = nopMonitor{}
	}
	w.monitor = m
}

// AddHeightField строит тайл (x, y) из side*side сэмплов с шагом triSize.
// Существующий тайл заменяется.
func (w *World) AddHeightField(samples []float64, x, y int, yOffset, triSize float64, side int) {
	w.live()
	name := HeightFieldName(x, y)
	if _, ok := w.heightFields[name]; ok {
		w.logger.Printf("[Physics] Замена тайла террейна %s", name)
		w.RemoveHeightField(x, y)
	}
	hf := newHeightField(samples, x, y, yOffset, triSize, side)
	w.heightFields[name] = hf
	w.dynamics.addRigidBody(hf.body, heightMapFilter)
}

// RemoveHeightField удаляет тайл (x, y), отсутствующий игнорируется
func (w *World) RemoveHeightField(x, y int) {
	w.live()
	name := HeightFieldName(x, y)
	hf, ok := w.heightFields[name]
	if !ok {
		return
	}
	w.dynamics.removeRigidBody(hf.body)
	hf.body = nil
	hf.shape = nil
	delete(w.heightFields, name)
}

func (w *World) GetHeightField(x, y int) *HeightField {
	return w.heightFields[HeightFieldName(x, y)]
}

// CreateAndAdjustRigidBody строит незарегистрированное тело меша в масштабе
// в position/rotation со смещением бокса меша. Возвращает nil, если у
// варианта нет фигуры или если расставляемому твердому телу
// достался меш без узла коллизии.
func (w *World) CreateAndAdjustRigidBody(mesh, name string, scale float64, position mgl64.Vec3, rotation mgl64.Quat,
	raycasting, placeable bool) *RigidBody {
	w.live()
	set := w.shapes.Resolve(mesh, scale)

	if placeable && !raycasting && set.Solid != nil && !set.HasCollisionNode {
		return nil
	}
	if set.Solid == nil && !raycasting {
		return nil
	}
	if set.Raycast == nil && raycasting {
		return nil
	}

	shape := set.Solid
	if raycasting {
		shape = set.Raycast
	}
	body := NewRigidBody(name, shape)
	body.placeable = placeable
	w.AdjustRigidBody(body, position, rotation, set.BoxTranslation.Mul(scale), boxRotation(set))
	return body
}

func boxRotation(set ShapeSet) mgl64.Quat {
	if set.BoxRotation == (mgl64.Quat{}) {
		return mgl64.QuatIdent()
	}
	return set.BoxRotation
}

// AdjustRigidBody ставит тело в position/rotation со смещением бокса
func (w *World) AdjustRigidBody(body *RigidBody, position mgl64.Vec3, rotation mgl64.Quat,
	scaledBoxTranslation mgl64.Vec3, boxRotation mgl64.Quat) {
	boxrot := rotation.Mul(boxRotation)
	origin := position.Add(boxrot.Rotate(scaledBoxTranslation))
	body.scaledBoxTranslation = scaledBoxTranslation
	body.boxRotation = boxRotation
	body.SetWorldTransform(collision.NewTransform(origin, boxrot))
}

// BoxAdjustExternal перечитывает смещение бокса меша и переставляет тело
func (w *World) BoxAdjustExternal(mesh string, body *RigidBody, scale float64, position mgl64.Vec3, rotation mgl64.Quat) {
	w.live()
	set := w.shapes.Resolve(mesh, scale)
	w.AdjustRigidBody(body, position, rotation, set.BoxTranslation.Mul(scale), boxRotation(set))
}

// AddRigidBody регистрирует твердое тело и/или тело для лучей.
// С addToMap тела с тем же именем сначала вытесняются,
// а новые записываются по имени.
func (w *World) AddRigidBody(body *RigidBody, addToMap bool, raycastBody *RigidBody) {
	w.live()
	if body == nil && raycastBody == nil {
		return
	}
	name := ""
	if body != nil {
		name = body.name
	} else {
		name = raycastBody.name
	}

	if addToMap {
		if w.collisionObjects[name] != nil || w.raycastObjects[name] != nil {
			w.logger.Printf("[Physics] Замена тела %q", name)
		}
		w.RemoveRigidBody(name)
		w.DeleteRigidBody(name)
	}

	if body != nil {
		w.dynamics.addRigidBody(body, worldFilter)
	}
	if raycastBody != nil {
		w.dynamics.addRigidBody(raycastBody, raycastFilter)
	}

	if addToMap {
		if body != nil {
			w.collisionObjects[name] = body
		}
		if raycastBody != nil {
			w.raycastObjects[name] = raycastBody
		}
	}
}

// RemoveRigidBody снимает тела с симуляции, но оставляет их
// в таблицах имен
func (w *World) RemoveRigidBody(name string) {
	w.live()
	if b, ok := w.collisionObjects[name]; ok && b != nil {
		w.dynamics.removeRigidBody(b)
	}
	if b, ok := w.raycastObjects[name]; ok && b != nil {
		w.dynamics.removeRigidBody(b)
	}
}

// DeleteRigidBody стирает тела из таблиц имен. Зарегистрированное
// тело также снимается с симуляции.
func (w *World) DeleteRigidBody(name string) {
	w.live()
	if b, ok := w.collisionObjects[name]; ok {
		if b != nil {
			w.dynamics.removeRigidBody(b)
		}
		delete(w.collisionObjects, name)
	}
	if b, ok := w.raycastObjects[name]; ok {
		if b != nil {
			w.dynamics.removeRigidBody(b)
		}
		delete(w.raycastObjects, name)
	}
}

// GetRigidBody ищет тело по имени среди твердых или тел для лучей
func (w *World) GetRigidBody(name string, raycasting bool) *RigidBody {
	if raycasting {
		return w.raycastObjects[name]
	}
	return w.collisionObjects[name]
}

// AddCharacter создает персонажа, заменяя существующего с тем же именем
func (w *World) AddCharacter(name, mesh string, position mgl64.Vec3, scale float64, rotation mgl64.Quat) *Actor {
	w.live()
	w.RemoveCharacter(name)
	a := newActor(name, mesh, w.shapes, w.dynamics, w.cfg.CapsuleTolerance, position, rotation, scale)
	w.actors[name] = a
	return a
}

// RemoveCharacter удаляет персонажа, отсутствующий игнорируется
func (w *World) RemoveCharacter(name string) {
	w.live()
	a, ok := w.actors[name]
	if !ok {
		return
	}
	a.release()
	delete(w.actors, name)
}

func (w *World) GetCharacter(name string) *Actor {
	return w.actors[name]
}

// Characters персонажи, отсортированные по имени
func (w *World) Characters() []*Actor {
	out := make([]*Actor, 0, len(w.actors))
	for _, a := range w.actors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// StepSimulation продвигает симуляцию на dt секунд и возвращает
// число сделанных подшагов
func (w *World) StepSimulation(dt float64) int {
	w.live()
	start := time.Now()
	n := w.dynamics.stepSimulation(dt, w.cfg.MaxSubSteps, w.cfg.FixedTimeStep)
	if w.debugDrawer != nil {
		w.debugDrawer.step()
	}
	w.monitor.RecordStep(n, time.Since(start))
	return n
}

// Manifolds манифолды последнего подшага
func (w *World) Manifolds() []*Manifold {
	w.live()
	return w.dynamics.solver.sorted()
}

func (w *World) NumCollisionObjects() int {
	if w.dynamics == nil {
		return 0
	}
	return w.dynamics.numCollisionObjects()
}

// SetSceneRoot узел, к которому цепляется отладочная отрисовка
func (w *World) SetSceneRoot(root SceneNode) {
	w.sceneRoot = root
}

// CreateDebugRendering создает отрисовку под корнем сцены и рисует
// один раз. Без корня сцены или повторно ничего не делает.
func (w *World) CreateDebugRendering() {
	w.live()
	if w.debugDrawer != nil {
		return
	}
	if w.sceneRoot == nil {
		w.logger.Printf("[Physics] Отладочная отрисовка запрошена без корня сцены")
		return
	}
	w.debugDrawer = newDebugDrawer(w.sceneRoot.CreateChildSceneNode("physics_debug"), w.dynamics)
	w.debugDrawer.setMode(w.debugMode)
	w.debugDrawer.step()
}

// SetDebugRenderingMode задает режим, при необходимости создает отрисовку
func (w *World) SetDebugRenderingMode(mode int) {
	w.CreateDebugRendering()
	w.debugMode = mode
	if w.debugDrawer != nil {
		w.debugDrawer.setMode(mode)
		w.debugDrawer.step()
	}
}

// ToggleDebugRendering переключает каркас и выключение, true если включено
func (w *World) ToggleDebugRendering() bool {
	if w.debugMode != DebugDrawNone {
		w.SetDebugRenderingMode(DebugDrawNone)
	} else {
		w.SetDebugRenderingMode(DebugDrawWireframe)
	}
	return w.debugMode != DebugDrawNone
}

func (w *World) DebugRenderingMode() int { return w.debugMode }

// Close разбирает мир: тайлы, твердые тела, тела для лучей и персонажи,
// затем отладочная отрисовка, затем симуляция и ее части.
// Дальше мир использовать нельзя.
func (w *World) Close() {
	if w.dynamics == nil {
		return
	}
	for name, hf := range w.heightFields {
		w.dynamics.removeRigidBody(hf.body)
		hf.body, hf.shape = nil, nil
		delete(w.heightFields, name)
	}
	w.released("height fields")

	for name, b := range w.collisionObjects {
		if b != nil {
			w.dynamics.removeRigidBody(b)
		}
		delete(w.collisionObjects, name)
	}
	w.released("rigid bodies")

	for name, b := range w.raycastObjects {
		if b != nil {
			w.dynamics.removeRigidBody(b)
		}
		delete(w.raycastObjects, name)
	}
	w.released("raycast bodies")

	for name, a := range w.actors {
		a.release()
		delete(w.actors, name)
	}
	w.released("actors")

	if w.debugDrawer != nil {
		w.debugDrawer.release()
		w.debugDrawer = nil
	}
	w.released("debug drawer")

	if left := w.dynamics.release(); left > 0 {
		w.logger.Printf("[Physics] При закрытии оставалось безымянных тел: %d", left)
	}
	w.dynamics = nil
	w.released("dynamics world")

	w.solver = nil
	w.released("solver")
	w.collisionConfig = nil
	w.released("collision configuration")
	w.dispatcher = nil
	w.released("dispatcher")
	w.broadphase = nil
	w.released("broadphase")

	w.logger.Printf("[Physics] Мир закрыт")
}

func (w *World) released(stage string) {
	if w.onRelease != nil {
		w.onRelease(stage)
	}
}
