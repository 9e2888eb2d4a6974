package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/game"
	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
)

// ErrInvalidMessage обработчик получил сообщение не своего типа
var ErrInvalidMessage = errors.New("ws: invalid message")

// GetCurrentServerTime текущее время сервера в миллисекундах
func GetCurrentServerTime() int64 {
	return time.Now().UnixMilli()
}

// GetMessageType возвращает тип сообщения на основе входных данных
func GetMessageType(data []byte) (string, error) {
	var baseMessage struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &baseMessage); err != nil {
		return "", fmt.Errorf("ws: parse message type: %w", err)
	}
	return baseMessage.Type, nil
}

func decode[T any](data []byte, kind string) (*T, error) {
	msg := new(T)
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("ws: parse %s message: %w", kind, err)
	}
	return msg, nil
}

// ParseMessage разбирает входящее сообщение в соответствующий тип
func ParseMessage(data []byte) (any, error) {
	messageType, err := GetMessageType(data)
	if err != nil {
		return nil, err
	}

	switch messageType {
	case MessageTypeDebugMode:
		return decode[DebugModeMessage](data, messageType)
	case MessageTypeToggleDebug:
		return decode[ToggleDebugMessage](data, messageType)
	case MessageTypePing:
		return decode[PingMessage](data, messageType)
	case MessageTypePong:
		return decode[PongMessage](data, messageType)
	case MessageTypeInfo:
		return decode[InfoMessage](data, messageType)
	case MessageTypeDebugLines:
		return decode[DebugLinesMessage](data, messageType)
	case MessageTypeDebugState:
		return decode[DebugStateMessage](data, messageType)
	case MessageTypeContacts:
		return decode[ContactsMessage](data, messageType)
	case MessageTypeError:
		return decode[ErrorMessage](data, messageType)
	default:
		return nil, fmt.Errorf("ws: unknown message type %q", messageType)
	}
}

// NewPongMessage создает ответ на пинг
func NewPongMessage(clientTime int64) *PongMessage {
	return &PongMessage{
		Type:       MessageTypePong,
		ClientTime: clientTime,
		ServerTime: GetCurrentServerTime(),
	}
}

// NewInfoMessage создает новое информационное сообщение
func NewInfoMessage(message string) *InfoMessage {
	return &InfoMessage{
		Type:    MessageTypeInfo,
		Message: message,
	}
}

// NewErrorMessage создает сообщение об ошибке
func NewErrorMessage(message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MessageTypeError,
		Message: message,
	}
}

// NewDebugLinesMessage создает кадр отрисовки узла
func NewDebugLinesMessage(node string, frame uint64, lines []physics.DebugLine) *DebugLinesMessage {
	if lines == nil {
		lines = []physics.DebugLine{}
	}
	return &DebugLinesMessage{
		Type:       MessageTypeDebugLines,
		Node:       node,
		Frame:      frame,
		Lines:      lines,
		ServerTime: GetCurrentServerTime(),
	}
}

// NewDebugStateMessage создает сообщение о режиме отрисовки
func NewDebugStateMessage(mode int) *DebugStateMessage {
	return &DebugStateMessage{
		Type:    MessageTypeDebugState,
		Mode:    mode,
		Enabled: mode != physics.DebugDrawNone,
	}
}

// NewContactsMessage создает пачку событий касаний
func NewContactsMessage(events []game.ContactEvent) *ContactsMessage {
	return &ContactsMessage{
		Type:       MessageTypeContacts,
		Events:     events,
		ServerTime: GetCurrentServerTime(),
	}
}
