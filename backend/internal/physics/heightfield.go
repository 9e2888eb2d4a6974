package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics/collision"
)

// HeightField один тайл террейна: фигура и статичное тело
type HeightField struct {
	GridX, GridY int

	shape *collision.HeightField
	body  *RigidBody

	// yOffset принимается, но тайл не сдвигает
	yOffset float64
}

func (h *HeightField) Body() *RigidBody { return h.body }

func (h *HeightField) Shape() *collision.HeightField { return h.shape }

func (h *HeightField) ElevationOffset() float64 { return h.yOffset }

// HeightFieldName имя тела тайла (x, y)
func HeightFieldName(x, y int) string {
	return fmt.Sprintf("HeightField_%d_%d", x, y)
}

// newHeightField находит диапазон высот и ставит тайл так, чтобы
// мировые высоты совпадали с сэмплами
func newHeightField(samples []float64, x, y int, yOffset, triSize float64, side int) *HeightField {
	n := side * side
	minH, maxH := samples[0], samples[0]
	for _, h := range samples[:n] {
		if h > maxH {
			maxH = h
		}
		if h < minH {
			minH = h
		}
	}
	shape := collision.NewHeightField(samples, side, side, minH, maxH, mgl64.Vec3{triSize, triSize, 1}, true)

	body := NewRigidBody(HeightFieldName(x, y), shape)
	extent := triSize * float64(side-1)
	body.SetWorldTransform(collision.NewTransform(mgl64.Vec3{
		(float64(x) + 0.5) * extent,
		(float64(y) + 0.5) * extent,
		(maxH + minH) / 2,
	}, mgl64.QuatIdent()))

	return &HeightField{GridX: x, GridY: y, shape: shape, body: body, yOffset: yOffset}
}
