package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// HeightField статичный террейн из регулярной сетки высот.
// Сэмпл (i, j) лежит в Heights[j*Width+i]. Локальная система отсчета в центре
// сетки по X/Y и в (MinHeight+MaxHeight)/2 по Z, поэтому тело в этой точке
// дает мировые высоты, равные сэмплам.
type HeightField struct {
	width     int
	length    int
	heights   []float64
	minHeight float64
	maxHeight float64
	scale     mgl64.Vec3
	diamond   bool
}

// NewHeightField копирует сэмплы. scale.X и scale.Y шаг сетки,
// scale.Z множитель высот. С diamond соседние ячейки меняют диагональ
// и треугольники складываются в ромбы.
func NewHeightField(samples []float64, width, length int, minHeight, maxHeight float64, scale mgl64.Vec3, diamond bool) *HeightField {
	if width < 2 || length < 2 {
		panic("collision: height field needs at least 2x2 samples")
	}
	if len(samples) < width*length {
		panic("collision: height field sample slice too short")
	}
	h := make([]float64, width*length)
	copy(h, samples)
	return &HeightField{
		width:     width,
		length:    length,
		heights:   h,
		minHeight: minHeight,
		maxHeight: maxHeight,
		scale:     scale,
		diamond:   diamond,
	}
}

func (h *HeightField) Kind() Kind { return KindHeightField }

func (h *HeightField) Width() int  { return h.width }
func (h *HeightField) Length() int { return h.length }

func (h *HeightField) MinHeight() float64 { return h.minHeight }
func (h *HeightField) MaxHeight() float64 { return h.maxHeight }

func (h *HeightField) Scale() mgl64.Vec3 { return h.scale }

func (h *HeightField) Sample(i, j int) float64 {
	return h.heights[j*h.width+i]
}

func (h *HeightField) LocalAABB() AABB {
	hx := float64(h.width-1) / 2 * h.scale[0]
	hy := float64(h.length-1) / 2 * h.scale[1]
	hz := (h.maxHeight - h.minHeight) / 2 * h.scale[2]
	return AABB{Min: mgl64.Vec3{-hx, -hy, -hz}, Max: mgl64.Vec3{hx, hy, hz}}
}

func (h *HeightField) Scaled(s float64) Shape {
	out := *h
	out.scale = h.scale.Mul(s)
	return &out
}

// Vertex точка сетки (i, j) в локальных координатах
func (h *HeightField) Vertex(i, j int) mgl64.Vec3 {
	mid := (h.minHeight + h.maxHeight) / 2
	return mgl64.Vec3{
		(float64(i) - float64(h.width-1)/2) * h.scale[0],
		(float64(j) - float64(h.length-1)/2) * h.scale[1],
		(h.Sample(i, j) - mid) * h.scale[2],
	}
}

// CellTriangles два треугольника ячейки (i, j), нормали смотрят в +Z
func (h *HeightField) CellTriangles(i, j int) [2][3]mgl64.Vec3 {
	v00 := h.Vertex(i, j)
	v10 := h.Vertex(i+1, j)
	v01 := h.Vertex(i, j+1)
	v11 := h.Vertex(i+1, j+1)
	if !h.diamond || (i+j)%2 == 0 {
		return [2][3]mgl64.Vec3{{v00, v10, v11}, {v00, v11, v01}}
	}
	return [2][3]mgl64.Vec3{{v00, v10, v01}, {v10, v11, v01}}
}

// CellRange диапазон ячеек (включительно), задетых прямоугольником XY
func (h *HeightField) CellRange(minX, minY, maxX, maxY float64) (i0, j0, i1, j1 int, ok bool) {
	toI := func(x float64) float64 { return x/h.scale[0] + float64(h.width-1)/2 }
	toJ := func(y float64) float64 { return y/h.scale[1] + float64(h.length-1)/2 }
	fi0, fi1 := toI(minX), toI(maxX)
	fj0, fj1 := toJ(minY), toJ(maxY)
	if fi0 > fi1 {
		fi0, fi1 = fi1, fi0
	}
	if fj0 > fj1 {
		fj0, fj1 = fj1, fj0
	}
	lastI, lastJ := float64(h.width-2), float64(h.length-2)
	if fi1 < 0 || fj1 < 0 || fi0 > lastI+1 || fj0 > lastJ+1 {
		return 0, 0, 0, 0, false
	}
	i0 = int(math.Max(0, math.Floor(fi0)))
	j0 = int(math.Max(0, math.Floor(fj0)))
	i1 = int(math.Min(lastI, math.Floor(fi1)))
	j1 = int(math.Min(lastJ, math.Floor(fj1)))
	return i0, j0, i1, j1, i0 <= i1 && j0 <= j1
}

// EachTriangle обходит треугольники ячеек, задетых прямоугольником XY.
// false останавливает обход.
func (h *HeightField) EachTriangle(minX, minY, maxX, maxY float64, fn func(tri [3]mgl64.Vec3) bool) {
	i0, j0, i1, j1, ok := h.CellRange(minX, minY, maxX, maxY)
	if !ok {
		return
	}
	for j := j0; j <= j1; j++ {
		for i := i0; i <= i1; i++ {
			for _, tri := range h.CellTriangles(i, j) {
				if !fn(tri) {
					return
				}
			}
		}
	}
}

// SurfaceAt высота и нормаль вверх в локальной точке XY
func (h *HeightField) SurfaceAt(x, y float64) (float64, mgl64.Vec3, bool) {
	i0, j0, _, _, ok := h.CellRange(x, y, x, y)
	if !ok {
		return 0, mgl64.Vec3{}, false
	}
	for _, tri := range h.CellTriangles(i0, j0) {
		if z, n, inside := triangleHeightAt(tri, x, y); inside {
			return z, n, true
		}
	}
	return 0, mgl64.Vec3{}, false
}

// triangleHeightAt пересекает вертикаль с tri: высота и нормаль в сторону +Z
func triangleHeightAt(tri [3]mgl64.Vec3, x, y float64) (float64, mgl64.Vec3, bool) {
	a, b, c := tri[0], tri[1], tri[2]
	det := (b[1]-c[1])*(a[0]-c[0]) + (c[0]-b[0])*(a[1]-c[1])
	if math.Abs(det) < 1e-12 {
		return 0, mgl64.Vec3{}, false
	}
	l1 := ((b[1]-c[1])*(x-c[0]) + (c[0]-b[0])*(y-c[1])) / det
	l2 := ((c[1]-a[1])*(x-c[0]) + (a[0]-c[0])*(y-c[1])) / det
	l3 := 1 - l1 - l2
	const eps = 1e-9
	if l1 < -eps || l2 < -eps || l3 < -eps {
		return 0, mgl64.Vec3{}, false
	}
	z := l1*a[2] + l2*b[2] + l3*c[2]
	return z, triangleUpNormal(tri), true
}

func triangleUpNormal(tri [3]mgl64.Vec3) mgl64.Vec3 {
	n := safeNormalize(tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0])), mgl64.Vec3{0, 0, 1})
	if n[2] < 0 {
		n = n.Mul(-1)
	}
	return n
}
