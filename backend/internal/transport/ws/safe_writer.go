package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait сколько ждать записи одного сообщения
const writeWait = 5 * time.Second

// ErrConnClosed запись в соединение после Close
var ErrConnClosed = errors.New("ws: connection closed")

// SafeWriter сериализует запись в соединение клиента. Читает только цикл HandleWS.
type SafeWriter struct {
	conn   *websocket.Conn
	remote string

	mu     sync.Mutex
	closed bool
}

func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{conn: conn, remote: conn.RemoteAddr().String()}
}

// write выполняет fn под блокировкой с дедлайном записи
func (w *SafeWriter) write(fn func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrConnClosed
	}
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return fn()
}

// WriteJSON отправляет одно сообщение
func (w *SafeWriter) WriteJSON(v any) error {
	return w.write(func() error { return w.conn.WriteJSON(v) })
}

// Close отправляет кадр закрытия и закрывает соединение. Повторный вызов ничего не делает.
func (w *SafeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	// Клиент мог уже отвалиться, кадр закрытия не обязателен
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return w.conn.Close()
}

func (w *SafeWriter) ReadMessage() (int, []byte, error) {
	return w.conn.ReadMessage()
}

// RemoteAddr адрес клиента, запомненный при подключении
func (w *SafeWriter) RemoteAddr() string { return w.remote }
