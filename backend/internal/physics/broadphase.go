package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics/collision"
)

// broadphase индексирует тела по горизонтальной проекции в дереве
// ограничивающих боксов. Дерево отсекает по X/Y, query проверяет полный бокс.
type broadphase struct {
	index  *cp.SpatialIndex
	tree   *cp.BBTree
	bodies map[*cp.Shape]*RigidBody
	bounds map[*cp.Shape]cp.BB
	nextID cp.HashValue
}

func newBroadphase() *broadphase {
	bp := &broadphase{
		bodies: make(map[*cp.Shape]*RigidBody),
		bounds: make(map[*cp.Shape]cp.BB),
	}
	bp.index = cp.NewBBTree(bp.bb, nil)
	bp.tree = bp.index.GetTree()
	return bp
}

// bb для дерева, у прокси нет своей геометрии
func (bp *broadphase) bb(proxy *cp.Shape) cp.BB {
	return bp.bounds[proxy]
}

func footprint(box collision.AABB) cp.BB {
	return cp.BB{L: box.Min[0], B: box.Min[1], R: box.Max[0], T: box.Max[1]}
}

func (bp *broadphase) insert(b *RigidBody) {
	proxy := &cp.Shape{}
	bp.nextID++
	b.proxy = proxy
	b.id = bp.nextID
	b.aabb = b.AABB()
	bp.bodies[proxy] = b
	bp.bounds[proxy] = footprint(b.aabb)
	bp.tree.Insert(proxy, b.id)
}

func (bp *broadphase) remove(b *RigidBody) {
	proxy := b.proxy
	if proxy == nil {
		return
	}
	if bp.tree.Contains(proxy, b.id) {
		bp.tree.Remove(proxy, b.id)
	}
	delete(bp.bodies, proxy)
	delete(bp.bounds, proxy)
	b.proxy = nil
}

// update вставляет сдвинутое тело заново, дерево не переиндексирует лист на месте
func (bp *broadphase) update(b *RigidBody) {
	proxy := b.proxy
	if proxy == nil {
		return
	}
	b.aabb = b.AABB()
	fp := footprint(b.aabb)
	if fp == bp.bounds[proxy] {
		return
	}
	bp.tree.Remove(proxy, b.id)
	bp.bounds[proxy] = fp
	bp.tree.Insert(proxy, b.id)
}

// query обходит тела, чьи границы пересекают box
func (bp *broadphase) query(box collision.AABB, fn func(*RigidBody)) {
	var hits []*RigidBody
	bp.tree.Query(nil, footprint(box), func(_ interface{}, proxy *cp.Shape, id uint32, _ interface{}) uint32 {
		if b, ok := bp.bodies[proxy]; ok && b.aabb.Intersects(box) {
			hits = append(hits, b)
		}
		return id
	}, nil)
	for _, b := range hits {
		fn(b)
	}
}

// querySegment обходит тела, пересекающие границы отрезка
func (bp *broadphase) querySegment(from, to mgl64.Vec3, radius float64, fn func(*RigidBody)) {
	bp.query(collision.AABBFromPoints(from, to).Expand(radius), fn)
}

func (bp *broadphase) count() int {
	return bp.tree.Count()
}
