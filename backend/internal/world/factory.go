package world

import (
	"log"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics/collision"
)

// ShapeLoader превращает описания мешей в геометрию для физики и кэширует
// результат по ключу меш+масштаб
type ShapeLoader struct {
	library *MeshLibrary
	logger  *log.Logger

	mu      sync.Mutex
	cache   map[string]physics.ShapeSet
	version uint64
	missing map[string]struct{}
}

// NewShapeLoader создает загрузчик поверх библиотеки мешей
func NewShapeLoader(library *MeshLibrary, logger *log.Logger) *ShapeLoader {
	if logger == nil {
		logger = log.Default()
	}
	return &ShapeLoader{
		library: library,
		logger:  logger,
		cache:   make(map[string]physics.ShapeSet),
		version: library.Version(),
		missing: make(map[string]struct{}),
	}
}

// Resolve возвращает фигуры меша в заданном масштабе. Неизвестный меш дает
// пустой набор, это штатная ситуация.
func (l *ShapeLoader) Resolve(mesh string, scale float64) physics.ShapeSet {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Библиотека поменялась (перезагрузка манифестов) - кэш устарел
	if v := l.library.Version(); v != l.version {
		l.resetLocked(v)
	}

	key := physics.ShapeKey(mesh, scale)
	if set, ok := l.cache[key]; ok {
		return set
	}

	def, ok := l.library.Get(mesh)
	if !ok {
		if _, logged := l.missing[mesh]; !logged {
			l.missing[mesh] = struct{}{}
			l.logger.Printf("[World] Меш %s не найден в библиотеке", mesh)
		}
		return physics.ShapeSet{}
	}

	set := physics.ShapeSet{
		BoxTranslation:   def.BoxTranslation,
		BoxRotation:      EulerToQuat(def.BoxRotation),
		HasCollisionNode: def.CollisionNode,
	}
	if solid := buildShape(def.Collision); solid != nil {
		set.Solid = solid.Scaled(scale)
	}
	// Без отдельной геометрии для лучей используется геометрия коллизии
	if ray := buildShape(def.Raycast); ray != nil {
		set.Raycast = ray.Scaled(scale)
	} else {
		set.Raycast = set.Solid
	}

	l.cache[key] = set
	return set
}

// BoundingBox возвращает ограничивающий бокс меша. Если он не задан явно,
// берется AABB геометрии коллизии.
func (l *ShapeLoader) BoundingBox(mesh string) (mgl64.Vec3, mgl64.Vec3, mgl64.Quat, bool) {
	def, ok := l.library.Get(mesh)
	if !ok {
		return mgl64.Vec3{}, mgl64.Vec3{}, mgl64.QuatIdent(), false
	}
	if def.Bounds != nil {
		return def.Bounds.HalfExtents, def.Bounds.Translation, EulerToQuat(def.Bounds.Rotation), true
	}
	shape := buildShape(def.Collision)
	if shape == nil {
		return mgl64.Vec3{}, mgl64.Vec3{}, mgl64.QuatIdent(), false
	}
	box := shape.LocalAABB()
	return box.HalfExtents(), box.Center(), mgl64.QuatIdent(), true
}

// Invalidate сбрасывает кэш фигур
func (l *ShapeLoader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked(l.library.Version())
}

// CacheSize количество закэшированных пар меш+масштаб
func (l *ShapeLoader) CacheSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

func (l *ShapeLoader) resetLocked(version uint64) {
	l.cache = make(map[string]physics.ShapeSet)
	l.missing = make(map[string]struct{})
	l.version = version
}

// buildShape собирает один примитив как есть, несколько - в составную фигуру
func buildShape(prims []Primitive) collision.Shape {
	switch len(prims) {
	case 0:
		return nil
	case 1:
		p := prims[0]
		if p.Offset == (mgl64.Vec3{}) && p.Rotation == (mgl64.Vec3{}) {
			return p.Shape()
		}
	}
	children := make([]collision.Child, 0, len(prims))
	for _, p := range prims {
		children = append(children, collision.Child{Transform: p.Local(), Shape: p.Shape()})
	}
	return collision.NewCompound(children...)
}
