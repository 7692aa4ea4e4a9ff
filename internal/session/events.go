package session

import (
	"github.com/google/uuid"

	"github.com/arrastaplay/game-platform/internal/question"
)

// Event types pushed to the client while a session is running.
const (
	EventQuestionStarted = "question_started"
	EventDropResult      = "drop_result"
	EventHintShown       = "hint_shown"
	EventIllustration    = "illustration"
	EventSessionComplete = "session_complete"
	EventSpeech          = "speech"
	EventHaptic          = "haptic"
)

// Event is a typed notification emitted by the engine. The transport
// (WebSocket hub) is behind EventSink so the engine stays transport-agnostic.
type Event struct {
	Type    string
	Payload any
}

// EventSink receives engine events for delivery to the session's client.
type EventSink interface {
	Publish(sessionID uuid.UUID, ev Event)
}

// QuestionStartedPayload announces the active question.
type QuestionStartedPayload struct {
	QuestionID string `json:"question_id"`
	Index      int    `json:"index"`
	Total      int    `json:"total"`
	Prompt     string `json:"prompt"`
}

// DropResultPayload reports the evaluation of a dropped option.
type DropResultPayload struct {
	Value   string `json:"value"`
	Correct bool   `json:"correct"`
	Score   int    `json:"score"`
}

// HintShownPayload carries the hint revealed after a wrong answer lingers.
type HintShownPayload struct {
	Hint string `json:"hint"`
}

// IllustrationPayload delivers the image to display for the current question.
// Generated is false when the bundled static illustration is used.
type IllustrationPayload struct {
	Image     question.Image `json:"image"`
	Generated bool           `json:"generated"`
}

// SessionCompletePayload reports the final score back to the shell.
type SessionCompletePayload struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// SpeechPayload carries synthesized audio for the announced text.
type SpeechPayload struct {
	Text     string `json:"text"`
	AudioB64 string `json:"audio_b64"`
	MimeType string `json:"mime_type"`
}

// HapticPayload is a vibration pattern in milliseconds, alternating
// pulse and gap.
type HapticPayload struct {
	PatternMs []int64 `json:"pattern_ms"`
}
