package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_sessions_started_total",
		Help: "Number of play sessions created.",
	})
	sessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_sessions_completed_total",
		Help: "Number of play sessions finished with all questions answered.",
	})
	dropsEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_drops_evaluated_total",
		Help: "Drop evaluations by result.",
	}, []string{"result"})
	illustrationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_illustration_fallbacks_total",
		Help: "Illustration requests that fell back to the bundled static image.",
	})
)
