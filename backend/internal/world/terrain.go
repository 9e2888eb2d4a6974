package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// noise2D - хеш-шум в диапазоне [0..1)
func noise2D(x, y float64, seed int64) float64 {
	h := x*12.9898 + y*78.233 + float64(seed%9973)*0.1731
	sinH := math.Sin(h)
	return math.Abs(sinH*43758.5453) - math.Floor(math.Abs(sinH*43758.5453))
}

// lerp - линейная интерполяция между a и b
func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// smoothstep - функция интерполяции для сглаживания
func smoothstep(t float64) float64 {
	return t * t * (3.0 - 2.0*t)
}

// smoothNoise - билинейно сглаженный шум по узлам целочисленной решетки
func smoothNoise(x, y float64, seed int64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	x1 := x0 + 1.0
	y1 := y0 + 1.0

	sx := smoothstep(x - x0)
	sy := smoothstep(y - y0)

	n00 := noise2D(x0, y0, seed)
	n10 := noise2D(x1, y0, seed)
	n01 := noise2D(x0, y1, seed)
	n11 := noise2D(x1, y1, seed)

	nx0 := lerp(n00, n10, sx)
	nx1 := lerp(n01, n11, sx)
	return lerp(nx0, nx1, sy)
}

// SampleHeight высота в точке мировой сетки сэмплов (gx, gy).
// Зависит только от глобальных координат, поэтому соседние тайлы сшиваются.
func SampleHeight(gx, gy float64, cfg TerrainConfig) float64 {
	scale := cfg.NoiseScale
	if scale <= 0 {
		scale = 1
	}
	octaves := cfg.Octaves
	if octaves <= 0 {
		octaves = 1
	}

	// Фрактальный шум: каждая октава вдвое мельче и вдвое слабее
	value, amplitude, total := 0.0, 1.0, 0.0
	freq := 1.0 / scale
	for o := 0; o < octaves; o++ {
		value += smoothNoise(gx*freq, gy*freq, cfg.Seed+int64(o)) * amplitude
		total += amplitude
		amplitude *= 0.5
		freq *= 2
	}
	value /= total

	return cfg.MinHeight + value*(cfg.MaxHeight-cfg.MinHeight)
}

// GenerateTile - сэмплы тайла (x, y) размером Side*Side, строка за строкой по Y
func GenerateTile(x, y int, cfg TerrainConfig) []float64 {
	side := cfg.Side
	data := make([]float64, side*side)
	baseX := float64(x * (side - 1))
	baseY := float64(y * (side - 1))
	for j := 0; j < side; j++ {
		for i := 0; i < side; i++ {
			data[j*side+i] = SampleHeight(baseX+float64(i), baseY+float64(j), cfg)
		}
	}
	return data
}

// TileExtent длина стороны тайла в мировых единицах
func TileExtent(cfg TerrainConfig) float64 {
	return cfg.TriangleSize * float64(cfg.Side-1)
}

// TileAt координаты тайла, накрывающего мировую точку
func TileAt(p mgl64.Vec3, cfg TerrainConfig) (int, int) {
	ext := TileExtent(cfg)
	return int(math.Floor(p[0] / ext)), int(math.Floor(p[1] / ext))
}

// GroundHeight высота рельефа в мировой точке (x, y) с той же триангуляцией,
// что и у физического тайла. Совпадает с ним при нечетном Side.
func GroundHeight(x, y float64, cfg TerrainConfig) float64 {
	gx := x / cfg.TriangleSize
	gy := y / cfg.TriangleSize
	i0, j0 := math.Floor(gx), math.Floor(gy)
	fx, fy := gx-i0, gy-j0

	h00 := SampleHeight(i0, j0, cfg)
	h10 := SampleHeight(i0+1, j0, cfg)
	h01 := SampleHeight(i0, j0+1, cfg)
	h11 := SampleHeight(i0+1, j0+1, cfg)

	// Та же "ромбовидная" разбивка ячейки на два треугольника
	if (int(i0)+int(j0))%2 == 0 {
		if fx >= fy {
			return h00 + (h10-h00)*fx + (h11-h10)*fy
		}
		return h00 + (h11-h01)*fx + (h01-h00)*fy
	}
	if fx+fy <= 1 {
		return h00 + (h10-h00)*fx + (h01-h00)*fy
	}
	return h11 + (h01-h11)*(1-fx) + (h10-h11)*(1-fy)
}
