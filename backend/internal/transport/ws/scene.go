package ws

import (
	"sort"
	"sync"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
)

// DebugScene корневой узел сцены для отладочной отрисовки мира. Линии узлов
// хранятся до отправки клиентам, запись не блокируется сетью.
type DebugScene struct {
	mu    sync.Mutex
	nodes map[string]*debugNode
	frame uint64
}

// debugNode дочерний узел, в который рисует физический мир
type debugNode struct {
	scene *DebugScene
	name  string
	lines []physics.DebugLine
	// frame номер последнего изменения, sent номер последнего отправленного
	frame uint64
	sent  uint64
}

// NewDebugScene создает пустую сцену
func NewDebugScene() *DebugScene {
	return &DebugScene{nodes: make(map[string]*debugNode)}
}

var _ physics.SceneNode = (*DebugScene)(nil)

// CreateChildSceneNode создает узел или возвращает существующий с тем же именем
func (s *DebugScene) CreateChildSceneNode(name string) physics.SceneNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[name]; ok {
		return n
	}
	n := &debugNode{scene: s, name: name}
	s.nodes[name] = n
	return n
}

// DrawLines у корня нет своей геометрии
func (s *DebugScene) DrawLines([]physics.DebugLine) {}

func (n *debugNode) CreateChildSceneNode(name string) physics.SceneNode {
	return n.scene.CreateChildSceneNode(n.name + "/" + name)
}

func (n *debugNode) DrawLines(lines []physics.DebugLine) {
	s := n.scene
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(lines) == 0 && len(n.lines) == 0 && n.frame > 0 {
		return
	}
	n.lines = append(n.lines[:0:0], lines...)
	s.frame++
	n.frame = s.frame
}

// Pending забирает кадры узлов, изменившихся после прошлого вызова
func (s *DebugScene) Pending() []*DebugLinesMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*DebugLinesMessage
	for _, n := range s.nodes {
		if n.frame == n.sent {
			continue
		}
		n.sent = n.frame
		out = append(out, NewDebugLinesMessage(n.name, n.frame, append([]physics.DebugLine(nil), n.lines...)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })
	return out
}

// Snapshot текущие кадры всех узлов, для новых клиентов
func (s *DebugScene) Snapshot() []*DebugLinesMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*DebugLinesMessage, 0, len(s.nodes))
	for _, n := range s.nodes {
		if n.frame == 0 {
			continue
		}
		out = append(out, NewDebugLinesMessage(n.name, n.frame, append([]physics.DebugLine(nil), n.lines...)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })
	return out
}

// NodeNames имена созданных узлов
func (s *DebugScene) NodeNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.nodes))
	for name := range s.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
