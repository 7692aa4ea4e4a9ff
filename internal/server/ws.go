package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/arrastaplay/game-platform/pkg/http/ws"
)

// WSUpgrader handles WebSocket upgrades. The game client is same-origin in
// production; origin checking is relaxed for local development.
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// NewWSHandler upgrades connections and serves the event stream. A client may
// auto-subscribe with ?session_id=... or send subscribe messages later.
func NewWSHandler(hub *ws.Hub, logger zerolog.Logger) http.HandlerFunc {
	wsLogger := logger.With().Str("component", "ws_handler").Logger()

	return func(w http.ResponseWriter, r *http.Request) {
		rawConn, err := WSUpgrader.Upgrade(w, r, nil)
		if err != nil {
			wsLogger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		clientID := uuid.New()
		conn := ws.NewConnection(rawConn, wsLogger)
		hub.Register(clientID, conn)
		go conn.WritePump()

		if raw := r.URL.Query().Get("session_id"); raw != "" {
			if sessionID, err := uuid.Parse(raw); err == nil {
				hub.Subscribe(sessionID, clientID)
			}
		}

		conn.ReadPump(func(msg ws.Message) error {
			return handleClientMessage(hub, conn, clientID, msg)
		})
		hub.Unregister(clientID)
	}
}

func handleClientMessage(hub *ws.Hub, conn *ws.Connection, clientID uuid.UUID, msg ws.Message) error {
	switch msg.Type {
	case ws.TypePing:
		return conn.Send(ws.Message{Type: ws.TypePong})
	case ws.TypeSubscribe, ws.TypeUnsubscribe:
		var payload ws.SubscribePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return sendError(conn, "invalid_payload", "malformed subscribe payload")
		}
		sessionID, err := uuid.Parse(payload.SessionID)
		if err != nil {
			return sendError(conn, "invalid_payload", "invalid session id")
		}
		if msg.Type == ws.TypeSubscribe {
			hub.Subscribe(sessionID, clientID)
		} else {
			hub.Unsubscribe(sessionID, clientID)
		}
		return nil
	default:
		return sendError(conn, "unknown_message_type", fmt.Sprintf("unknown type %q", msg.Type))
	}
}

func sendError(conn *ws.Connection, code, message string) error {
	payload, _ := json.Marshal(ws.ErrorPayload{Code: code, Message: message})
	return conn.Send(ws.Message{Type: ws.TypeError, Payload: payload})
}
