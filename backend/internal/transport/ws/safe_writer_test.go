package ws

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// echoCollector принимает соединение и складывает прочитанные сообщения в канал
func echoCollector(t *testing.T, received chan<- string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(msg)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket server: %v", err)
	}
	return conn
}

func TestSafeWriter_WriteJSON_Concurrency(t *testing.T) {
	received := make(chan string, 10)
	server := echoCollector(t, received)

	wsConn := dial(t, server.URL)
	writer := NewSafeWriter(wsConn)
	defer writer.Close()

	// 10 горутин пишут одновременно, каждая свое сообщение
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			msg := struct {
				ID  int    `json:"id"`
				Msg string `json:"msg"`
			}{ID: id, Msg: "Test message"}
			if err := writer.WriteJSON(msg); err != nil {
				t.Errorf("Error writing message: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Все сообщения должны дойти целыми и быть разными
	uniq := make(map[string]struct{})
	for i := 0; i < 10; i++ {
		select {
		case msg := <-received:
			uniq[msg] = struct{}{}
		case <-time.After(5 * time.Second):
			t.Fatalf("Timed out after %d messages", i)
		}
	}
	if len(uniq) != 10 {
		t.Errorf("Expected 10 unique messages, got %d", len(uniq))
	}
}

func TestSafeWriter_Close(t *testing.T) {
	server := echoCollector(t, make(chan string, 1))

	writer := NewSafeWriter(dial(t, server.URL))
	if writer.RemoteAddr() == "" {
		t.Error("Remote address should be known after dial")
	}
	if err := writer.Close(); err != nil {
		t.Errorf("Error closing connection: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}

	// Запись в закрытое соединение
	if err := writer.WriteJSON("test"); !errors.Is(err, ErrConnClosed) {
		t.Errorf("Expected ErrConnClosed, got %v", err)
	}
}
