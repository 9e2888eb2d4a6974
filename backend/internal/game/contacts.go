package game

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
)

// ContactEvent начало или конец касания двух тел
type ContactEvent struct {
	Object string `json:"object"`
	Other  string `json:"other"`
	Began  bool   `json:"began"`
}

// ContactListener получает изменения касаний
type ContactListener interface {
	OnContacts(events []ContactEvent)
}

// ContactSystem следит за касаниями выбранных объектов и сообщает об изменениях
type ContactSystem struct {
	name     string
	priority int
	host     *WorldHost
	logger   *log.Logger

	mu       sync.Mutex
	watched  map[string]map[string]struct{} // объект -> текущие касания
	listener ContactListener
}

// NewContactSystem создает систему касаний
func NewContactSystem(host *WorldHost, logger *log.Logger) *ContactSystem {
	return &ContactSystem{
		name:     "ContactSystem",
		priority: 30, // После шага физики
		host:     host,
		logger:   logger,
		watched:  make(map[string]map[string]struct{}),
	}
}

// SetListener устанавливает получателя событий
func (cs *ContactSystem) SetListener(l ContactListener) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listener = l
}

// Watch начинает следить за объектом
func (cs *ContactSystem) Watch(name string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.watched[name]; !ok {
		cs.watched[name] = make(map[string]struct{})
	}
}

// Unwatch перестает следить за объектом
func (cs *ContactSystem) Unwatch(name string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.watched, name)
}

// Contacts текущие касания объекта
func (cs *ContactSystem) Contacts(name string) []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]string, 0, len(cs.watched[name]))
	for other := range cs.watched[name] {
		out = append(out, other)
	}
	sort.Strings(out)
	return out
}

func (cs *ContactSystem) Update(deltaTime time.Duration) error {
	cs.mu.Lock()
	names := make([]string, 0, len(cs.watched))
	for name := range cs.watched {
		names = append(names, name)
	}
	cs.mu.Unlock()
	sort.Strings(names)

	current := make(map[string][]string, len(names))
	cs.host.Do(func(w *physics.World) {
		for _, name := range names {
			current[name] = w.GetCollisions(name)
		}
	})

	var events []ContactEvent
	cs.mu.Lock()
	for _, name := range names {
		prev, ok := cs.watched[name]
		if !ok {
			continue // Unwatch во время запроса
		}
		next := make(map[string]struct{}, len(current[name]))
		for _, other := range current[name] {
			next[other] = struct{}{}
			if _, had := prev[other]; !had {
				events = append(events, ContactEvent{Object: name, Other: other, Began: true})
			}
		}
		ended := make([]string, 0)
		for other := range prev {
			if _, still := next[other]; !still {
				ended = append(ended, other)
			}
		}
		sort.Strings(ended)
		for _, other := range ended {
			events = append(events, ContactEvent{Object: name, Other: other, Began: false})
		}
		cs.watched[name] = next
	}
	listener := cs.listener
	cs.mu.Unlock()

	if len(events) > 0 && listener != nil {
		listener.OnContacts(events)
	}
	return nil
}

func (cs *ContactSystem) GetName() string { return cs.name }

func (cs *ContactSystem) GetPriority() int { return cs.priority }
