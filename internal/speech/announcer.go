// Package speech synthesizes question prompts into audio and pushes the
// result to the session's client. Speaking cancels any prior utterance still
// being fetched, so the player never hears two prompts at once.
package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arrastaplay/game-platform/internal/session"
)

// Config holds TTS endpoint details.
type Config struct {
	BaseURL string
	Lang    string
	Timeout time.Duration
}

const defaultBaseURL = "https://translate.google.com/translate_tts"

// Announcer implements session.Announcer for a single session. It fetches an
// MP3 from the translate TTS endpoint and publishes it as a speech event.
type Announcer struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64

	sessionID  uuid.UUID
	events     session.EventSink
	httpClient *http.Client
	baseURL    string
	lang       string
	logger     zerolog.Logger
}

var _ session.Announcer = (*Announcer)(nil)

func NewAnnouncer(sessionID uuid.UUID, events session.EventSink, cfg Config, logger zerolog.Logger) *Announcer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	lang := cfg.Lang
	if lang == "" {
		lang = "pt"
	}

	return &Announcer{
		sessionID:  sessionID,
		events:     events,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		lang:       lang,
		logger:     logger.With().Str("component", "announcer").Str("session_id", sessionID.String()).Logger(),
	}
}

// Speak cancels any in-flight utterance and fetches audio for text. Synthesis
// failures are logged and swallowed; speech is never allowed to block play.
func (a *Announcer) Speak(text string) {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	go func() {
		audio, err := a.fetch(ctx, text)
		if err != nil {
			if ctx.Err() == nil {
				a.logger.Warn().Err(err).Msg("speech synthesis failed")
			}
			return
		}

		a.mu.Lock()
		stale := seq != a.seq
		a.mu.Unlock()
		if stale {
			return
		}

		a.events.Publish(a.sessionID, session.Event{
			Type: session.EventSpeech,
			Payload: session.SpeechPayload{
				Text:     text,
				AudioB64: base64.StdEncoding.EncodeToString(audio),
				MimeType: "audio/mpeg",
			},
		})
	}()
}

// Stop cancels the in-flight utterance, if any.
func (a *Announcer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.seq++
}

func (a *Announcer) fetch(ctx context.Context, text string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", a.lang)
	params.Set("client", "tw-ob")
	params.Set("textlen", fmt.Sprintf("%d", len(text)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	// The endpoint rejects requests without a browser user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
