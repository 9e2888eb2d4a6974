package world

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// MeshLibrary хранит описания мешей по идентификатору
type MeshLibrary struct {
	meshes  map[string]*MeshDef
	version uint64
	mu      sync.RWMutex
}

func NewMeshLibrary() *MeshLibrary {
	return &MeshLibrary{
		meshes: make(map[string]*MeshDef),
	}
}

// Add добавляет или заменяет описание меша
func (m *MeshLibrary) Add(def MeshDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meshes[def.ID] = &def
	m.version++
	return nil
}

// Get возвращает копию описания меша
func (m *MeshLibrary) Get(id string) (MeshDef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, exists := m.meshes[id]
	if !exists {
		return MeshDef{}, false
	}
	return *def, true
}

// Remove удаляет меш, если он есть
func (m *MeshLibrary) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.meshes[id]; exists {
		delete(m.meshes, id)
		m.version++
	}
}

// IDs возвращает отсортированный список идентификаторов
func (m *MeshLibrary) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]string, 0, len(m.meshes))
	for id := range m.meshes {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

func (m *MeshLibrary) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.meshes)
}

// Version растет при каждом изменении библиотеки
func (m *MeshLibrary) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// LoadManifest читает YAML манифест. Меши, которые раньше пришли из этого же
// файла и пропали из него, удаляются.
func (m *MeshLibrary) LoadManifest(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("world: read manifest %s: %w", path, err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return 0, fmt.Errorf("world: parse manifest %s: %w", path, err)
	}

	loaded := make(map[string]*MeshDef, len(manifest.Meshes))
	for i := range manifest.Meshes {
		def := manifest.Meshes[i]
		if err := def.Validate(); err != nil {
			return 0, fmt.Errorf("world: manifest %s: %w", path, err)
		}
		if _, dup := loaded[def.ID]; dup {
			return 0, fmt.Errorf("world: manifest %s: duplicate mesh %s", path, def.ID)
		}
		def.source = path
		loaded[def.ID] = &def
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, def := range m.meshes {
		if def.source == path {
			if _, keep := loaded[id]; !keep {
				delete(m.meshes, id)
			}
		}
	}
	for id, def := range loaded {
		m.meshes[id] = def
	}
	m.version++
	return len(loaded), nil
}

// RemoveSource удаляет все меши, пришедшие из файла path
func (m *MeshLibrary) RemoveSource(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, def := range m.meshes {
		if def.source == path {
			delete(m.meshes, id)
			removed++
		}
	}
	if removed > 0 {
		m.version++
	}
	return removed
}

// LoadDir загружает все *.yaml и *.yml из каталога
func (m *MeshLibrary) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("world: read manifest dir %s: %w", dir, err)
	}
	total := 0
	for _, e := range entries {
		if e.IsDir() || !isManifestFile(e.Name()) {
			continue
		}
		n, err := m.LoadManifest(filepath.Join(dir, e.Name()))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func isManifestFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
