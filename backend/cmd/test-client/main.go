package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/transport/ws"
)

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "URL WebSocket сервера")
	mode := flag.Int("mode", physics.DebugDrawWireframe, "Режим отладочной отрисовки")
	frames := flag.Int("frames", 10, "Сколько кадров прочитать")
	flag.Parse()

	// Подключаемся к серверу
	u, err := url.Parse(*serverURL)
	if err != nil {
		log.Fatalf("Неверный URL: %v", err)
	}

	log.Printf("Подключение к %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Ошибка подключения: %v", err)
	}
	defer conn.Close()

	log.Printf("Успешно подключен")

	// Включаем отрисовку
	if err := conn.WriteJSON(ws.DebugModeMessage{Type: ws.MessageTypeDebugMode, Mode: *mode}); err != nil {
		log.Fatalf("Ошибка отправки режима: %v", err)
	}
	if err := conn.WriteJSON(ws.PingMessage{Type: ws.MessageTypePing, ClientTime: ws.GetCurrentServerTime()}); err != nil {
		log.Fatalf("Ошибка отправки ping: %v", err)
	}

	// Читаем сообщения от сервера
	received := 0
	for received < *frames {
		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Ошибка чтения сообщения: %v", err)
			break
		}

		msg, err := ws.ParseMessage(data)
		if err != nil {
			log.Printf("Ошибка разбора сообщения: %v", err)
			continue
		}

		switch m := msg.(type) {
		case *ws.InfoMessage:
			log.Printf("INFO: %s", m.Message)
		case *ws.DebugStateMessage:
			log.Printf("DEBUG_STATE: режим %d, включено %v", m.Mode, m.Enabled)
		case *ws.DebugLinesMessage:
			received++
			log.Printf("DEBUG_LINES: узел %s, кадр %d, линий %d", m.Node, m.Frame, len(m.Lines))
		case *ws.ContactsMessage:
			for _, e := range m.Events {
				log.Printf("CONTACT: %s - %s, начало %v", e.Object, e.Other, e.Began)
			}
		case *ws.PongMessage:
			log.Printf("PONG: задержка %d мс", ws.GetCurrentServerTime()-m.ClientTime)
		case *ws.PingMessage:
			// Пинги сервера пропускаем
		default:
			out, _ := json.Marshal(m)
			log.Printf("Сообщение: %s", out)
		}
	}

	log.Printf("Тест завершен, кадров: %d", received)
}
