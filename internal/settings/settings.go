// Package settings manages the persisted accessibility flags: text-to-speech,
// high contrast, and reduced motion. The whole record is rewritten on every
// toggle; read and write failures degrade to defaults instead of failing.
package settings

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Settings is the persisted accessibility record. Booleans have no invalid
// states, so no validation is performed.
type Settings struct {
	TextToSpeech  bool `json:"text_to_speech"`
	HighContrast  bool `json:"high_contrast"`
	ReducedMotion bool `json:"reduced_motion"`
}

// Store persists the settings record. Load returns nil when no record exists.
type Store interface {
	Load(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s Settings) error
}

// Service holds the live settings and persists every change. High-contrast
// changes additionally notify theme observers, mirroring the global theme
// switch in the presentation layer.
type Service struct {
	mu             sync.Mutex
	current        Settings
	store          Store
	themeObservers []func(highContrast bool)
	logger         zerolog.Logger
}

// NewService loads the persisted record. Absent or corrupt records fall back
// to the all-false defaults with a warning; startup never fails on settings.
func NewService(ctx context.Context, store Store, logger zerolog.Logger) *Service {
	svc := &Service{
		store:  store,
		logger: logger.With().Str("component", "settings").Logger(),
	}

	loaded, err := store.Load(ctx)
	switch {
	case err != nil:
		svc.logger.Warn().Err(err).Msg("settings load failed, using defaults")
	case loaded != nil:
		svc.current = *loaded
	}
	return svc
}

// Current returns a copy of the live settings.
func (s *Service) Current() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnThemeChange registers an observer for high-contrast toggles.
func (s *Service) OnThemeChange(fn func(highContrast bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.themeObservers = append(s.themeObservers, fn)
}

// ToggleTextToSpeech flips the flag and persists the full record.
func (s *Service) ToggleTextToSpeech(ctx context.Context) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.TextToSpeech = !s.current.TextToSpeech
	s.persistLocked(ctx)
	return s.current
}

// ToggleHighContrast flips the flag, persists, and notifies theme observers.
func (s *Service) ToggleHighContrast(ctx context.Context) Settings {
	s.mu.Lock()
	s.current.HighContrast = !s.current.HighContrast
	s.persistLocked(ctx)
	value := s.current.HighContrast
	observers := make([]func(bool), len(s.themeObservers))
	copy(observers, s.themeObservers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ToggleReducedMotion flips the flag and persists the full record.
func (s *Service) ToggleReducedMotion(ctx context.Context) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.ReducedMotion = !s.current.ReducedMotion
	s.persistLocked(ctx)
	return s.current
}

// persistLocked writes the record. Persistence failures keep the in-memory
// value and log a warning; they never surface to the player.
func (s *Service) persistLocked(ctx context.Context) {
	if err := s.store.Save(ctx, s.current); err != nil {
		s.logger.Warn().Err(err).Msg("settings save failed")
	}
}
