package ws

import "encoding/json"

// MessageType constants for the game event stream.
const (
	// Client -> Server
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePing        = "ping"

	// Server -> Client
	TypeQuestionStarted = "question_started"
	TypeDropResult      = "drop_result"
	TypeHintShown       = "hint_shown"
	TypeIllustration    = "illustration"
	TypeSpeech          = "speech"
	TypeHaptic          = "haptic"
	TypeSessionComplete = "session_complete"
	TypeThemeChanged    = "theme_changed"
	TypeError           = "error"
	TypePong            = "pong"
)

// Message wraps every payload with its type.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubscribePayload asks to receive events for a running session.
type SubscribePayload struct {
	SessionID string `json:"session_id"`
}

// ThemeChangedPayload announces the global high-contrast switch.
type ThemeChangedPayload struct {
	HighContrast bool `json:"high_contrast"`
}

// ErrorPayload reports a protocol-level problem to the client.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
