package ws

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/game"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
)

const (
	DefaultUpdateInterval = 100 * time.Millisecond // Интервал отправки кадров отрисовки
	DefaultPingInterval   = 2 * time.Second        // Интервал отправки пингов
)

// errWorldClosed мир уже закрыт, запросы клиентов не выполняются
var errWorldClosed = errors.New("ws: physics world is closed")

// MessageHandler - тип функции обработчика сообщений
type MessageHandler func(conn *SafeWriter, message any) error

// WSServer раздает клиентам кадры отладочной отрисовки и события касаний
type WSServer struct {
	upgrader websocket.Upgrader
	host     *game.WorldHost
	scene    *DebugScene
	handlers map[string]MessageHandler
	logger   *log.Logger

	updateInterval time.Duration
	pingInterval   time.Duration

	clients   map[*SafeWriter]struct{}
	clientsMu sync.RWMutex

	// contacts события касаний, накопленные до следующей отправки
	contacts   []game.ContactEvent
	contactsMu sync.Mutex
}

var _ game.ContactListener = (*WSServer)(nil)

// NewWSServer создает сервер поверх мира и сцены, в которую мир рисует
func NewWSServer(host *game.WorldHost, scene *DebugScene, logger *log.Logger) *WSServer {
	if logger == nil {
		logger = log.Default()
	}
	s := &WSServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		host:           host,
		scene:          scene,
		handlers:       make(map[string]MessageHandler),
		logger:         logger,
		updateInterval: DefaultUpdateInterval,
		pingInterval:   DefaultPingInterval,
		clients:        make(map[*SafeWriter]struct{}),
	}

	// Регистрируем стандартные обработчики
	s.RegisterHandler(MessageTypePing, s.handlePing)
	s.RegisterHandler(MessageTypeDebugMode, s.handleDebugMode)
	s.RegisterHandler(MessageTypeToggleDebug, s.handleToggleDebug)
	return s
}

// RegisterHandler регистрирует обработчик для конкретного типа сообщений.
// Вызывать до начала обслуживания соединений.
func (s *WSServer) RegisterHandler(messageType string, handler MessageHandler) {
	s.handlers[messageType] = handler
}

// SetUpdateInterval устанавливает интервал отправки кадров
func (s *WSServer) SetUpdateInterval(interval time.Duration) {
	if interval > 0 {
		s.updateInterval = interval
	}
}

// SetPingInterval устанавливает интервал отправки пингов, 0 отключает пинги
func (s *WSServer) SetPingInterval(interval time.Duration) {
	s.pingInterval = interval
}

// ClientCount количество подключенных клиентов
func (s *WSServer) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// HandleWS обрабатывает входящие WebSocket соединения
func (s *WSServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[WS] Ошибка upgrade: %v", err)
		return
	}

	safeConn := NewSafeWriter(conn)
	defer s.removeClient(safeConn)

	s.logger.Printf("[WS] Новое соединение от %s", safeConn.RemoteAddr())

	if err := safeConn.WriteJSON(NewInfoMessage("Connected to physics debug stream")); err != nil {
		s.logger.Printf("[WS] Ошибка отправки приветствия: %v", err)
		return
	}

	mode := physics.DebugDrawNone
	s.host.Do(func(w *physics.World) { mode = w.DebugRenderingMode() })
	if err := safeConn.WriteJSON(NewDebugStateMessage(mode)); err != nil {
		return
	}
	// Новый клиент получает текущую картинку целиком
	for _, frame := range s.scene.Snapshot() {
		if err := safeConn.WriteJSON(frame); err != nil {
			return
		}
	}

	s.clientsMu.Lock()
	s.clients[safeConn] = struct{}{}
	s.clientsMu.Unlock()

	done := make(chan struct{})
	defer close(done)
	if s.pingInterval > 0 {
		go s.startPing(safeConn, done)
	}

	// Основной цикл обработки сообщений
	for {
		_, data, err := safeConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Printf("[WS] Ошибка соединения: %v", err)
			}
			break
		}

		message, err := ParseMessage(data)
		if err != nil {
			s.logger.Printf("[WS] Ошибка разбора сообщения: %v", err)
			safeConn.WriteJSON(NewErrorMessage(err.Error()))
			continue
		}

		messageType, _ := GetMessageType(data)
		handler, ok := s.handlers[messageType]
		if !ok {
			s.logger.Printf("[WS] Нет обработчика для сообщения %s", messageType)
			continue
		}
		if err := handler(safeConn, message); err != nil {
			s.logger.Printf("[WS] Ошибка обработки %s: %v", messageType, err)
			safeConn.WriteJSON(NewErrorMessage(err.Error()))
		}
	}

	s.logger.Printf("[WS] Соединение закрыто: %s", safeConn.RemoteAddr())
}

func (s *WSServer) removeClient(conn *SafeWriter) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
	conn.Close()
}

// Broadcast отправляет сообщение всем клиентам. Клиенты с ошибкой записи отключаются.
func (s *WSServer) Broadcast(message any) {
	s.clientsMu.RLock()
	clients := make([]*SafeWriter, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range clients {
		if err := c.WriteJSON(message); err != nil {
			s.logger.Printf("[WS] Ошибка отправки клиенту %s: %v", c.RemoteAddr(), err)
			s.removeClient(c)
		}
	}
}

// OnContacts копит события касаний до следующей отправки
func (s *WSServer) OnContacts(events []game.ContactEvent) {
	if len(events) == 0 {
		return
	}
	s.contactsMu.Lock()
	s.contacts = append(s.contacts, events...)
	s.contactsMu.Unlock()
}

// handlePing обрабатывает ping-сообщения
func (s *WSServer) handlePing(conn *SafeWriter, message any) error {
	pingMsg, ok := message.(*PingMessage)
	if !ok {
		return ErrInvalidMessage
	}
	return conn.WriteJSON(NewPongMessage(pingMsg.ClientTime))
}

// handleDebugMode меняет режим отрисовки мира и сообщает его всем клиентам
func (s *WSServer) handleDebugMode(_ *SafeWriter, message any) error {
	msg, ok := message.(*DebugModeMessage)
	if !ok {
		return ErrInvalidMessage
	}
	if msg.Mode < 0 {
		return errors.New("ws: debug mode must not be negative")
	}
	mode := physics.DebugDrawNone
	if !s.host.Do(func(w *physics.World) {
		w.SetDebugRenderingMode(msg.Mode)
		mode = w.DebugRenderingMode()
	}) {
		return errWorldClosed
	}
	s.logger.Printf("[WS] Режим отладочной отрисовки: %d", mode)
	s.Broadcast(NewDebugStateMessage(mode))
	return nil
}

// handleToggleDebug включает или выключает отрисовку
func (s *WSServer) handleToggleDebug(_ *SafeWriter, message any) error {
	if _, ok := message.(*ToggleDebugMessage); !ok {
		return ErrInvalidMessage
	}
	mode := physics.DebugDrawNone
	if !s.host.Do(func(w *physics.World) {
		w.ToggleDebugRendering()
		mode = w.DebugRenderingMode()
	}) {
		return errWorldClosed
	}
	s.logger.Printf("[WS] Отладочная отрисовка переключена, режим %d", mode)
	s.Broadcast(NewDebugStateMessage(mode))
	return nil
}

// startPing периодически пингует клиента до закрытия done
func (s *WSServer) startPing(conn *SafeWriter, done <-chan struct{}) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ping := &PingMessage{Type: MessageTypePing, ClientTime: GetCurrentServerTime()}
			if err := conn.WriteJSON(ping); err != nil {
				return
			}
		}
	}
}
