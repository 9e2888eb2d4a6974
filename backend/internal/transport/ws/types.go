package ws

import (
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/game"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
)

// Константы для WebSocket сообщений
const (
	// Типы сообщений
	MessageTypeDebugLines  = "debug_lines"  // Кадр отладочной отрисовки
	MessageTypeDebugMode   = "debug_mode"   // Смена режима отрисовки
	MessageTypeToggleDebug = "toggle_debug" // Включение/выключение отрисовки
	MessageTypeDebugState  = "debug_state"  // Текущий режим отрисовки
	MessageTypeContacts    = "contacts"     // Изменения касаний
	MessageTypePing        = "ping"         // Пинг для измерения задержки
	MessageTypePong        = "pong"         // Ответ на пинг
	MessageTypeInfo        = "info"         // Информационное сообщение
	MessageTypeError       = "error"        // Ошибка обработки запроса
)

// DebugLinesMessage линии одного узла отладочной отрисовки. Пустой список очищает узел.
type DebugLinesMessage struct {
	Type       string              `json:"type"`
	Node       string              `json:"node"`
	Frame      uint64              `json:"frame"`
	Lines      []physics.DebugLine `json:"lines"`
	ServerTime int64               `json:"server_time"`
}

// DebugModeMessage запрос клиента на смену режима (биты DebugDraw*)
type DebugModeMessage struct {
	Type string `json:"type"`
	Mode int    `json:"mode"`
}

// ToggleDebugMessage запрос клиента на переключение отрисовки
type ToggleDebugMessage struct {
	Type string `json:"type"`
}

// DebugStateMessage режим отрисовки после изменения
type DebugStateMessage struct {
	Type    string `json:"type"`
	Mode    int    `json:"mode"`
	Enabled bool   `json:"enabled"`
}

// ContactsMessage пачка событий касаний
type ContactsMessage struct {
	Type       string              `json:"type"`
	Events     []game.ContactEvent `json:"events"`
	ServerTime int64               `json:"server_time"`
}

// PingMessage представляет пинг от клиента
type PingMessage struct {
	Type       string `json:"type"`
	ClientTime int64  `json:"client_time"`
}

// PongMessage представляет ответ на пинг от сервера
type PongMessage struct {
	Type       string `json:"type"`
	ClientTime int64  `json:"client_time"`
	ServerTime int64  `json:"server_time"`
}

// InfoMessage представляет информационное сообщение от сервера
type InfoMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorMessage ошибка обработки сообщения клиента
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
