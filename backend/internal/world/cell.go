package world

import (
	"fmt"
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
)

// Placement статический объект ячейки
type Placement struct {
	Name      string     `yaml:"name"`
	Mesh      string     `yaml:"mesh"`
	Scale     float64    `yaml:"scale"`
	Position  mgl64.Vec3 `yaml:"position"`
	Rotation  mgl64.Vec3 `yaml:"rotation"`
	Placeable *bool      `yaml:"placeable,omitempty"`
	// WatchContacts сообщать о касаниях объекта
	WatchContacts bool `yaml:"watch_contacts"`
}

// ActorPlacement персонаж ячейки
type ActorPlacement struct {
	Name     string     `yaml:"name"`
	Mesh     string     `yaml:"mesh"`
	Scale    float64    `yaml:"scale"`
	Position mgl64.Vec3 `yaml:"position"`
	Rotation mgl64.Vec3 `yaml:"rotation"`
}

// Cell описание ячейки мира: тайлы террейна, объекты и персонажи
type Cell struct {
	Name    string           `yaml:"name"`
	Terrain [][2]int         `yaml:"terrain"`
	Objects []Placement      `yaml:"objects"`
	Actors  []ActorPlacement `yaml:"actors"`
}

// CellStats итог заполнения ячейки
type CellStats struct {
	Tiles   int
	Objects int
	Skipped int
	Actors  int
}

// LoadCell читает описание ячейки из YAML
func LoadCell(path string) (*Cell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("world: read cell %s: %w", path, err)
	}
	var cell Cell
	if err := yaml.Unmarshal(data, &cell); err != nil {
		return nil, fmt.Errorf("world: parse cell %s: %w", path, err)
	}
	seen := make(map[string]struct{})
	for i, o := range cell.Objects {
		if o.Name == "" || o.Mesh == "" {
			return nil, fmt.Errorf("world: cell %s: object %d needs a name and a mesh", path, i)
		}
		if _, dup := seen[o.Name]; dup {
			return nil, fmt.Errorf("world: cell %s: duplicate object %s", path, o.Name)
		}
		seen[o.Name] = struct{}{}
	}
	for i, a := range cell.Actors {
		if a.Name == "" {
			return nil, fmt.Errorf("world: cell %s: actor %d needs a name", path, i)
		}
	}
	return &cell, nil
}

func scaleOrOne(s float64) float64 {
	if s <= 0 {
		return 1
	}
	return s
}

// PopulateCell создает в мире тайлы, тела и персонажей ячейки.
// Объекты без геометрии пропускаются.
func PopulateCell(w *physics.World, cell *Cell, terrain TerrainConfig, logger *log.Logger) CellStats {
	if logger == nil {
		logger = log.Default()
	}
	var stats CellStats

	for _, t := range cell.Terrain {
		w.AddHeightField(GenerateTile(t[0], t[1], terrain), t[0], t[1], 0, terrain.TriangleSize, terrain.Side)
		stats.Tiles++
	}

	for _, o := range cell.Objects {
		placeable := true
		if o.Placeable != nil {
			placeable = *o.Placeable
		}
		scale := scaleOrOne(o.Scale)
		rot := EulerToQuat(o.Rotation)

		solid := w.CreateAndAdjustRigidBody(o.Mesh, o.Name, scale, o.Position, rot, false, placeable)
		ray := w.CreateAndAdjustRigidBody(o.Mesh, o.Name, scale, o.Position, rot, true, placeable)
		if solid == nil && ray == nil {
			logger.Printf("[World] Объект %s (%s) пропущен: нет геометрии", o.Name, o.Mesh)
			stats.Skipped++
			continue
		}
		w.AddRigidBody(solid, true, ray)
		stats.Objects++
	}

	for _, a := range cell.Actors {
		w.AddCharacter(a.Name, a.Mesh, a.Position, scaleOrOne(a.Scale), EulerToQuat(a.Rotation))
		stats.Actors++
	}

	logger.Printf("[World] Ячейка %s: тайлов %d, объектов %d (пропущено %d), персонажей %d",
		cell.Name, stats.Tiles, stats.Objects, stats.Skipped, stats.Actors)
	return stats
}

// PopulateTerrain создает тайлы в квадрате радиуса Radius вокруг тайла (0,0)
func PopulateTerrain(w *physics.World, terrain TerrainConfig) int {
	n := 0
	for y := -terrain.Radius; y <= terrain.Radius; y++ {
		for x := -terrain.Radius; x <= terrain.Radius; x++ {
			w.AddHeightField(GenerateTile(x, y, terrain), x, y, 0, terrain.TriangleSize, terrain.Side)
			n++
		}
	}
	return n
}

// UnloadCell убирает из мира все, что создала PopulateCell
func UnloadCell(w *physics.World, cell *Cell) {
	for _, t := range cell.Terrain {
		w.RemoveHeightField(t[0], t[1])
	}
	for _, o := range cell.Objects {
		w.RemoveRigidBody(o.Name)
		w.DeleteRigidBody(o.Name)
	}
	for _, a := range cell.Actors {
		w.RemoveCharacter(a.Name)
	}
}
