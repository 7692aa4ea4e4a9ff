package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/arrastaplay/game-platform/internal/config"
	"github.com/arrastaplay/game-platform/internal/haptics"
	"github.com/arrastaplay/game-platform/internal/illustration"
	"github.com/arrastaplay/game-platform/internal/logging"
	"github.com/arrastaplay/game-platform/internal/question"
	"github.com/arrastaplay/game-platform/internal/server"
	"github.com/arrastaplay/game-platform/internal/session"
	"github.com/arrastaplay/game-platform/internal/settings"
	"github.com/arrastaplay/game-platform/internal/speech"
	"github.com/arrastaplay/game-platform/pkg/http/ws"
)

// Application aggregates shared infrastructure (settings store, question
// bank, session registry, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	redis    *redis.Client
	sessions *session.Manager
	http     *http.Server
}

// New bootstraps config, logger, question bank, settings, and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	bank, err := question.LoadBank(logger)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	logger.Info().Int("questions", bank.Len()).Msg("question bank loaded")

	// Settings persistence: Redis when configured, in-process otherwise.
	var redisClient *redis.Client
	var settingsStore settings.Store
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		settingsStore = settings.NewRedisStore(redisClient, cfg.Redis.SettingsKey)
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; settings will not survive restarts")
		settingsStore = settings.NewMemoryStore()
	}
	settingsSvc := settings.NewService(ctx, settingsStore, logger)

	hub := ws.NewHub(logger)
	sink := server.NewHubSink(hub, logger)

	// The high-contrast toggle switches the theme everywhere, not just for
	// the session that flipped it.
	settingsSvc.OnThemeChange(func(highContrast bool) {
		payload, _ := json.Marshal(ws.ThemeChangedPayload{HighContrast: highContrast})
		hub.BroadcastAll(ws.Message{Type: ws.TypeThemeChanged, Payload: payload})
	})

	var illustrator session.IllustrationProvider
	if cfg.Illustration.URL != "" {
		illustrator = illustration.NewClient(illustration.Config{
			BaseURL: cfg.Illustration.URL,
			APIKey:  cfg.Illustration.APIKey,
			Timeout: cfg.Illustration.HTTPTimeout,
		}, logger)
	} else {
		logger.Warn().Msg("illustration service not configured; bundled images only")
	}

	speechCfg := speech.Config{
		BaseURL: cfg.Speech.BaseURL,
		Lang:    cfg.Speech.Lang,
		Timeout: cfg.Speech.HTTPTimeout,
	}

	sessionMgr := session.NewManager(session.ManagerConfig{
		Bank:        bank,
		Illustrator: illustrator,
		Settings:    settingsSvc,
		Events:      sink,
		NewAnnouncer: func(sessionID uuid.UUID) session.Announcer {
			return speech.NewAnnouncer(sessionID, sink, speechCfg, logger)
		},
		NewHaptics: func(sessionID uuid.UUID) session.Haptics {
			return haptics.NewEventDriver(sessionID, sink)
		},
		Options: session.Options{
			HintDelay:       cfg.Game.HintDelay,
			HapticCorrect:   cfg.Game.HapticCorrect,
			HapticIncorrect: cfg.Game.HapticIncorrect,
		},
	}, logger)

	handlers := server.NewHandlers(sessionMgr, settingsSvc, logger)
	apiServer := server.NewHTTPServer(cfg, logger, handlers, server.NewWSHandler(hub, logger))

	return &Application{
		cfg:      cfg,
		logger:   logger,
		redis:    redisClient,
		sessions: sessionMgr,
		http:     apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.sessions.CloseAll()

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
