package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arrastaplay/game-platform/internal/question"
)

// ManagerConfig wires the shared collaborators for new sessions. Announcer and
// Haptics are per-session (one audio channel, one vibration target per client)
// so they come from factories; the rest are shared.
type ManagerConfig struct {
	Bank         *question.Bank
	Illustrator  IllustrationProvider
	Settings     SettingsSource
	Events       EventSink
	NewAnnouncer func(sessionID uuid.UUID) Announcer
	NewHaptics   func(sessionID uuid.UUID) Haptics
	Options      Options
}

// Manager is the registry of live session engines, keyed by session ID.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Engine
	cfg      ManagerConfig
	logger   zerolog.Logger
}

// NewManager creates an empty session registry.
func NewManager(cfg ManagerConfig, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Engine),
		cfg:      cfg,
		logger:   logger.With().Str("component", "session_manager").Logger(),
	}
}

// Create builds and starts a session for the chosen subject and level. A
// subject/level pair with no questions still yields a session, in the
// no-questions state, so the shell can present it distinctly.
func (m *Manager) Create(subject question.Subject, level question.Level) *Engine {
	id := uuid.New()

	deps := Deps{
		Illustrator: m.cfg.Illustrator,
		Settings:    m.cfg.Settings,
		Events:      m.cfg.Events,
	}
	if m.cfg.NewAnnouncer != nil {
		deps.Announcer = m.cfg.NewAnnouncer(id)
	}
	if m.cfg.NewHaptics != nil {
		deps.Haptics = m.cfg.NewHaptics(id)
	}

	eng := NewEngine(id, subject, level, m.cfg.Bank.Filter(subject, level), deps, m.cfg.Options, m.logger)
	eng.Start()

	m.mu.Lock()
	m.sessions[id] = eng
	m.mu.Unlock()

	sessionsStarted.Inc()
	m.logger.Info().
		Str("session_id", id.String()).
		Str("subject", string(subject)).
		Int("level", int(level)).
		Int("questions", len(eng.questions)).
		Msg("session created")
	return eng
}

// Get looks up a live session.
func (m *Manager) Get(id uuid.UUID) (*Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	eng, ok := m.sessions[id]
	return eng, ok
}

// Remove tears a session down (player navigated home). Reports whether the
// session existed.
func (m *Manager) Remove(id uuid.UUID) bool {
	m.mu.Lock()
	eng, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		eng.Close()
	}
	return ok
}

// CloseAll tears down every live session; used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	engines := make([]*Engine, 0, len(m.sessions))
	for _, eng := range m.sessions {
		engines = append(engines, eng)
	}
	m.sessions = make(map[uuid.UUID]*Engine)
	m.mu.Unlock()

	for _, eng := range engines {
		eng.Close()
	}
}
