package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"arrasta-play"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Redis        Redis
	Game         Game
	Illustration Illustration
	Speech       Speech
}

// Redis configures the settings store. An empty address falls back to the
// in-process store (settings survive only until restart).
type Redis struct {
	Addr        string `env:"REDIS_ADDR"`
	DB          int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize    int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	SettingsKey string `env:"SETTINGS_KEY" envDefault:"game:settings"`
}

// Game groups gameplay timing defaults.
type Game struct {
	HintDelay       time.Duration   `env:"HINT_DELAY" envDefault:"1s"`
	HapticCorrect   []time.Duration `env:"HAPTIC_CORRECT_PATTERN" envSeparator:"," envDefault:"100ms"`
	HapticIncorrect []time.Duration `env:"HAPTIC_INCORRECT_PATTERN" envSeparator:"," envDefault:"200ms,50ms,200ms"`
}

// Illustration configures the AI image-generation service. Leaving URL empty
// disables generation; questions show their bundled illustrations.
type Illustration struct {
	URL         string        `env:"ILLUSTRATION_URL"`
	APIKey      string        `env:"ILLUSTRATION_API_KEY"`
	HTTPTimeout time.Duration `env:"ILLUSTRATION_HTTP_TIMEOUT" envDefault:"8s"`
}

// Speech configures the text-to-speech endpoint.
type Speech struct {
	BaseURL     string        `env:"SPEECH_TTS_URL"`
	Lang        string        `env:"SPEECH_LANG" envDefault:"pt"`
	HTTPTimeout time.Duration `env:"SPEECH_HTTP_TIMEOUT" envDefault:"10s"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
