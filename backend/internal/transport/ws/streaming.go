package ws

import (
	"context"
	"net/http"
	"time"
)

// Run отправляет клиентам изменившиеся кадры отрисовки и накопленные касания
// с интервалом обновления, пока не отменен ctx
func (s *WSServer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()

	s.logger.Printf("[WS] Поток отладочной отрисовки запущен, интервал %v", s.updateInterval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Printf("[WS] Поток отладочной отрисовки остановлен")
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// Flush отправляет все, что накопилось с прошлой отправки
func (s *WSServer) Flush() {
	frames := s.scene.Pending()
	for _, frame := range frames {
		s.Broadcast(frame)
	}

	s.contactsMu.Lock()
	events := s.contacts
	s.contacts = nil
	s.contactsMu.Unlock()
	if len(events) > 0 {
		s.Broadcast(NewContactsMessage(events))
	}
}

// Register вешает обработчик соединений на mux
func (s *WSServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.HandleWS)
	s.logger.Printf("[WS] WebSocket сервер зарегистрирован на /ws")
}
