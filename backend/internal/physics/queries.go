package physics

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics/collision"
)

// RayResult ближайшее попадание RayTest. При промахе Name пустое,
// а Fraction отрицательная.
type RayResult struct {
	Name     string
	Fraction float64
	Normal   mgl64.Vec3
}

func (r RayResult) Hit() bool { return r.Fraction >= 0 }

// RayHit одно попадание RayTest2
type RayHit struct {
	Fraction float64
	Name     string
}

// RayTest бросает отрезок from -> to и возвращает ближайшее попадание.
// С raycastingObjectOnly учитываются тела для лучей и персонажи, иначе
// твердые тела мира. Террейн учитывается без ignoreHeightMap.
func (w *World) RayTest(from, to mgl64.Vec3, raycastingObjectOnly, ignoreHeightMap bool) RayResult {
	w.live()
	mask := CollisionWorld
	if raycastingObjectOnly {
		mask = CollisionRaycasting | CollisionActor
	}
	if !ignoreHeightMap {
		mask |= CollisionHeightMap
	}
	res := w.closestRay(from, to, queryFilter(mask))
	w.monitor.RecordQuery(QueryRayTest, res.Fraction >= 0)
	return res
}

func (w *World) closestRay(from, to mgl64.Vec3, f Filter) RayResult {
	res := RayResult{Fraction: -1}
	var best *RigidBody
	w.dynamics.rayTest(from, to, f, func(b *RigidBody, hit collision.Hit) {
		if best == nil || hit.Fraction < res.Fraction || (hit.Fraction == res.Fraction && b.id < best.id) {
			best = b
			res = RayResult{Name: b.name, Fraction: hit.Fraction, Normal: hit.Normal}
		}
	})
	return res
}

// RayTest2 все тела для лучей и персонажи на отрезке, ближние первыми
func (w *World) RayTest2(from, to mgl64.Vec3) []RayHit {
	w.live()
	var hits []RayHit
	w.dynamics.rayTest(from, to, queryFilter(CollisionRaycasting|CollisionActor), func(b *RigidBody, hit collision.Hit) {
		hits = append(hits, RayHit{Fraction: hit.Fraction, Name: b.name})
	})
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Fraction != hits[j].Fraction {
			return hits[i].Fraction < hits[j].Fraction
		}
		return hits[i].Name < hits[j].Name
	})
	w.monitor.RecordQuery(QueryRayTestAll, len(hits) > 0)
	return hits
}

// SphereCast ведет сферу от from к to по объектам и террейну. Тело
// с исключенным именем (игрок) не учитывается. При свободном пути
// возвращает false и fraction 1.
func (w *World) SphereCast(radius float64, from, to mgl64.Vec3) (bool, float64) {
	w.live()
	fraction := 1.0
	hit := false
	w.dynamics.sphereSweepTest(radius, from, to, queryFilter(CollisionWorld|CollisionHeightMap), func(b *RigidBody, h collision.Hit) {
		if b.name == w.cfg.SweepExcludedName {
			return
		}
		if !hit || h.Fraction < fraction {
			fraction = h.Fraction
			hit = true
		}
	})
	w.monitor.RecordQuery(QuerySphereCast, hit)
	return hit, fraction
}

// GetCollisions имена тел, касающихся тела name. Тело ищется сначала
// среди твердых, затем среди тел для лучей. Тела для лучей в результат
// не попадают. Для неизвестного имени nil.
func (w *World) GetCollisions(name string) []string {
	w.live()
	body := w.GetRigidBody(name, false)
	if body == nil {
		body = w.GetRigidBody(name, true)
	}
	if body == nil {
		w.monitor.RecordQuery(QueryCollisions, false)
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	w.dynamics.contactTest(body, Filter{Group: CollisionWorld, Mask: CollisionAll}, func(other *RigidBody, cp collision.ContactPoint) {
		if other.filter.Group&CollisionRaycasting != 0 {
			return
		}
		if _, ok := seen[other.name]; ok {
			return
		}
		seen[other.name] = struct{}{}
		out = append(out, other.name)
	})
	sort.Strings(out)
	w.monitor.RecordQuery(QueryCollisions, len(out) > 0)
	return out
}

// GetFilteredContact ищет среди контактов obj с объектами, террейном и
// персонажами тот, чья точка на obj ближе всего к origin. Тела с именем
// filter пропускаются. Без контакта тело nil.
func (w *World) GetFilteredContact(filter string, origin mgl64.Vec3, obj *RigidBody) (*RigidBody, mgl64.Vec3) {
	w.live()
	var (
		best     *RigidBody
		point    mgl64.Vec3
		bestDist float64
	)
	f := Filter{Group: CollisionAll, Mask: CollisionWorld | CollisionHeightMap | CollisionActor}
	w.dynamics.contactTest(obj, f, func(other *RigidBody, cp collision.ContactPoint) {
		if other.name == filter {
			return
		}
		d := cp.PositionWorldOnA.Sub(origin)
		dist := d.Dot(d)
		if best == nil || dist < bestDist {
			best = other
			point = cp.PositionWorldOnA
			bestDist = dist
		}
	})
	w.monitor.RecordQuery(QueryFilteredContact, best != nil)
	return best, point
}

// IsAnyActorStandingOn проверяет, попадает ли луч вниз от какого-нибудь
// стоящего на земле персонажа первым в тело name
func (w *World) IsAnyActorStandingOn(name string) bool {
	w.live()
	found := false
	probe := mgl64.Vec3{0, 0, w.cfg.StandingProbeDistance}
	for _, a := range w.Characters() {
		if !a.OnGround() {
			continue
		}
		from := a.Position()
		res := w.closestRay(from, from.Sub(probe), queryFilter(CollisionRaycasting|CollisionActor|CollisionHeightMap))
		if res.Name == name {
			found = true
			break
		}
	}
	w.monitor.RecordQuery(QueryStandingOn, found)
	return found
}

// GetObjectAABB границы меша в масштабе, предпочитая фигуру для лучей.
// Без фигуры оба угла нулевые.
func (w *World) GetObjectAABB(mesh string, scale float64) (mgl64.Vec3, mgl64.Vec3) {
	w.live()
	set := w.shapes.Resolve(mesh, scale)
	shape := set.Raycast
	if shape == nil {
		shape = set.Solid
	}
	if shape == nil {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}
	box := shape.LocalAABB()
	return box.Min, box.Max
}
