package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arrastaplay/game-platform/internal/question"
	"github.com/arrastaplay/game-platform/internal/session"
	"github.com/arrastaplay/game-platform/internal/settings"
	httperrors "github.com/arrastaplay/game-platform/pkg/http/errors"
)

// Handlers exposes the session engine and settings over JSON endpoints. All
// game rules live in the engine; handlers only translate.
type Handlers struct {
	sessions *session.Manager
	settings *settings.Service
	logger   zerolog.Logger
}

func NewHandlers(sessions *session.Manager, settingsSvc *settings.Service, logger zerolog.Logger) *Handlers {
	return &Handlers{
		sessions: sessions,
		settings: settingsSvc,
		logger:   logger.With().Str("component", "http_handlers").Logger(),
	}
}

type createSessionRequest struct {
	Subject string `json:"subject"`
	Level   int    `json:"level"`
}

type dropRequest struct {
	Value string `json:"value"`
}

type dragOverRequest struct {
	Over bool `json:"over"`
}

// CreateSession starts a play-through for the chosen subject and level. An
// empty filtered set is not an error: the response carries the distinct
// no-questions state.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON payload")
		return
	}

	subject, err := question.ParseSubject(req.Subject)
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidSubject, err.Error(), "subject")
		return
	}
	level, err := question.ParseLevel(req.Level)
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidLevel, err.Error(), "level")
		return
	}

	eng := h.sessions.Create(subject, level)
	respondJSON(w, http.StatusCreated, eng.Snapshot())
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	eng, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, eng.Snapshot())
}

// DeleteSession is the "navigate home" teardown: pending speech, hint timers,
// and in-flight illustration results are all discarded.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if !h.sessions.Remove(id) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SubmitDrop(w http.ResponseWriter, r *http.Request) {
	eng, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req dropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON payload")
		return
	}

	if _, err := eng.SubmitDrop(req.Value); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, eng.Snapshot())
}

func (h *Handlers) Acknowledge(w http.ResponseWriter, r *http.Request) {
	eng, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := eng.Acknowledge(); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, eng.Snapshot())
}

func (h *Handlers) SetDragOver(w http.ResponseWriter, r *http.Request) {
	eng, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req dragOverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON payload")
		return
	}

	if err := eng.SetDragOver(req.Over); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, eng.Snapshot())
}

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.settings.Current())
}

// ToggleSetting flips one of the three accessibility flags by name and
// returns the full persisted record.
func (h *Handlers) ToggleSetting(w http.ResponseWriter, r *http.Request) {
	var updated settings.Settings
	switch r.PathValue("name") {
	case "text-to-speech":
		updated = h.settings.ToggleTextToSpeech(r.Context())
	case "high-contrast":
		updated = h.settings.ToggleHighContrast(r.Context())
	case "reduced-motion":
		updated = h.settings.ToggleReducedMotion(r.Context())
	default:
		httperrors.RespondBadRequest(w, httperrors.ErrCodeUnknownSetting, "unknown setting name")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (*session.Engine, bool) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return nil, false
	}
	eng, ok := h.sessions.Get(id)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "session not found")
		return nil, false
	}
	return eng, true
}

func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionClosed):
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionClosed, err.Error())
	case errors.Is(err, session.ErrSessionComplete):
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionComplete, err.Error())
	case errors.Is(err, session.ErrNoQuestions):
		httperrors.RespondConflict(w, httperrors.ErrCodeNoQuestions, err.Error())
	case errors.Is(err, session.ErrAwaitingAck):
		httperrors.RespondConflict(w, httperrors.ErrCodeAwaitingAck, err.Error())
	case errors.Is(err, session.ErrNoFeedback):
		httperrors.RespondConflict(w, httperrors.ErrCodeNoFeedback, err.Error())
	default:
		httperrors.RespondInternalError(w, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
