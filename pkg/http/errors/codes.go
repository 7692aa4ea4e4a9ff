package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeInvalidSubject = "invalid_subject"
	ErrCodeInvalidLevel   = "invalid_level"

	// Resource errors
	ErrCodeSessionNotFound = "session_not_found"

	// Gameplay errors
	ErrCodeSessionClosed   = "session_closed"
	ErrCodeSessionComplete = "session_complete"
	ErrCodeNoQuestions     = "no_questions"
	ErrCodeAwaitingAck     = "awaiting_acknowledgement"
	ErrCodeNoFeedback      = "no_feedback"

	// Settings errors
	ErrCodeUnknownSetting = "unknown_setting"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError = "internal_error"
)
