package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics/collision"
)

// ShapeSet геометрия одного меша в одном масштабе.
// Solid и Raycast могут быть nil, это нормально.
type ShapeSet struct {
	Solid   collision.Shape
	Raycast collision.Shape

	// BoxTranslation и BoxRotation собственное смещение меша без масштаба
	BoxTranslation mgl64.Vec3
	BoxRotation    mgl64.Quat

	// HasCollisionNode у меша есть отдельная геометрия коллизии
	HasCollisionNode bool
}

// ShapeProvider превращает идентификаторы мешей в геометрию коллизии
type ShapeProvider interface {
	// Resolve возвращает фигуры меша, уже отмасштабированные
	Resolve(mesh string, scale float64) ShapeSet
	// BoundingBox полуразмеры меша и его локальное смещение.
	// ok false, если у меша нет bounds.
	BoundingBox(mesh string) (halfExtents, translation mgl64.Vec3, orientation mgl64.Quat, ok bool)
}

// ShapeKey ключ кэша для меша в заданном масштабе
func ShapeKey(mesh string, scale float64) string {
	return mesh + fmt.Sprintf("%07.3f", scale)
}
