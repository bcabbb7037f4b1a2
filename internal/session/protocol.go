package session

import (
	"encoding/json"

	"github.com/spirolab/spiro/backend-go/internal/document"
	"github.com/spirolab/spiro/backend-go/internal/engine"
	"github.com/spirolab/spiro/backend-go/internal/spiro"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Client → session
	TypePointer  = "pointer"
	TypeViewport = "viewport"
	TypeCommand  = "command"
	TypeState    = "state"

	// Session → client
	TypeCommandAck  = "command.ack"
	TypeCommandNack = "command.nack"
	TypeFrame       = "frame"

	// Drag events, named after dragging.EventType
	TypeDragStart  = "drag.start"
	TypeDragEnd    = "drag.end"
	TypeDragCancel = "drag.cancel"
)

// PointerPayload is one pointer sample in window space. Pressed and Released
// carry the primary button edges seen since the previous sample.
type PointerPayload struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Inside   bool    `json:"inside"`
	Pressed  bool    `json:"pressed,omitempty"`
	Released bool    `json:"released,omitempty"`
}

type ViewportPayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	ScaleX float64 `json:"scaleX,omitempty"`
	ScaleY float64 `json:"scaleY,omitempty"`
}

type WelcomePayload struct {
	SessionID string            `json:"sessionId"`
	ClientID  string            `json:"clientId"`
	State     document.Document `json:"state"`
}

// FramePayload is one rendered frame. Traces arrive as deltas and are painted
// before Commands, which hold every non-trace draw command in painter's order.
type FramePayload struct {
	Tick     uint64               `json:"tick"`
	Cursor   string               `json:"cursor"`
	Settings document.Settings    `json:"settings"`
	Traces   []TraceDelta         `json:"traces,omitempty"`
	Removed  []spiro.GearID       `json:"removed,omitempty"`
	Commands []engine.DrawCommand `json:"commands"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
