package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/arrastaplay/game-platform/internal/config"
)

// NewHTTPServer wires the game API: session lifecycle, settings toggles,
// health, metrics, and the WebSocket event stream.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, h *Handlers, wsHandler http.HandlerFunc) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/sessions", h.CreateSession)
	mux.HandleFunc("GET /v1/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", h.DeleteSession)
	mux.HandleFunc("POST /v1/sessions/{id}/drop", h.SubmitDrop)
	mux.HandleFunc("POST /v1/sessions/{id}/ack", h.Acknowledge)
	mux.HandleFunc("PUT /v1/sessions/{id}/dragover", h.SetDragOver)

	mux.HandleFunc("GET /v1/settings", h.GetSettings)
	mux.HandleFunc("POST /v1/settings/{name}/toggle", h.ToggleSetting)

	if wsHandler != nil {
		mux.HandleFunc("GET /ws/events", wsHandler)
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}
