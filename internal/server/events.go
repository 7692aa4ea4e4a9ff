package server

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arrastaplay/game-platform/internal/session"
	"github.com/arrastaplay/game-platform/pkg/http/ws"
)

// HubSink delivers engine events to the clients following a session.
type HubSink struct {
	hub    *ws.Hub
	logger zerolog.Logger
}

var _ session.EventSink = (*HubSink)(nil)

func NewHubSink(hub *ws.Hub, logger zerolog.Logger) *HubSink {
	return &HubSink{
		hub:    hub,
		logger: logger.With().Str("component", "event_sink").Logger(),
	}
}

func (s *HubSink) Publish(sessionID uuid.UUID, ev session.Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("type", ev.Type).Msg("event payload marshal failed")
		return
	}
	s.hub.BroadcastToSession(sessionID, ws.Message{Type: ev.Type, Payload: payload})
}
