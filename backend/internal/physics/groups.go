package physics

import "strings"

// CollisionType категория фильтра столкновений. У каждого зарегистрированного
// тела есть группа и маска групп, с которыми оно взаимодействует
type CollisionType int

const (
	CollisionNothing    CollisionType = 0
	CollisionWorld      CollisionType = 1 << 0 // статичные объекты
	CollisionActor      CollisionType = 1 << 1
	CollisionHeightMap  CollisionType = 1 << 2 // террейн
	CollisionRaycasting CollisionType = 1 << 3 // только видимость и выбор

	// CollisionAll группа лучей и запросов контактов
	CollisionAll CollisionType = 0xff
)

func (c CollisionType) String() string {
	if c == CollisionNothing {
		return "nothing"
	}
	var parts []string
	for _, g := range []struct {
		bit  CollisionType
		name string
	}{
		{CollisionWorld, "world"},
		{CollisionActor, "actor"},
		{CollisionHeightMap, "heightmap"},
		{CollisionRaycasting, "raycasting"},
	} {
		if c&g.bit != 0 {
			parts = append(parts, g.name)
		}
	}
	if c&^(CollisionWorld|CollisionActor|CollisionHeightMap|CollisionRaycasting) != 0 {
		parts = append(parts, "other")
	}
	return strings.Join(parts, "|")
}

// Filter группа и маска принимаемых групп
type Filter struct {
	Group CollisionType
	Mask  CollisionType
}

// Accepts проверяет, могут ли два участника взаимодействовать.
// Проверка симметрична: группа каждого должна быть в маске другого.
func (f Filter) Accepts(o Filter) bool {
	return f.Mask&o.Group != 0 && o.Mask&f.Group != 0
}

var (
	worldFilter      = Filter{Group: CollisionWorld, Mask: CollisionWorld | CollisionActor | CollisionHeightMap}
	raycastFilter    = Filter{Group: CollisionRaycasting, Mask: CollisionRaycasting}
	heightMapFilter  = Filter{Group: CollisionHeightMap, Mask: CollisionWorld | CollisionActor | CollisionRaycasting}
	actorFilter      = Filter{Group: CollisionActor, Mask: CollisionActor | CollisionWorld | CollisionHeightMap}
	ghostActorFilter = Filter{Group: CollisionActor, Mask: CollisionRaycasting}
)

func queryFilter(mask CollisionType) Filter {
	return Filter{Group: CollisionAll, Mask: mask}
}
