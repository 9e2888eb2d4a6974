package game

import (
	"sync"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
)

// WorldHost владеет физическим миром. Все обращения к миру идут через Do,
// мир сам по себе не потокобезопасен.
type WorldHost struct {
	mu     sync.Mutex
	world  *physics.World
	closed bool
}

func NewWorldHost(w *physics.World) *WorldHost {
	return &WorldHost{world: w}
}

// Do выполняет fn под блокировкой мира. После Close возвращает false и fn не вызывает.
func (h *WorldHost) Do(fn func(w *physics.World)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	fn(h.world)
	return true
}

// Close разрушает мир. Повторный вызов ничего не делает.
func (h *WorldHost) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.world.Close()
}
