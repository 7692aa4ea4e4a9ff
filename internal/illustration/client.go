// Package illustration talks to the image-generation service that draws a
// picture for each question. The flow is two fallible steps: derive a
// descriptive prompt from the question text, then render a single image from
// that prompt. Callers treat the pair as one unit and fall back to the
// question's bundled illustration when either step fails.
package illustration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arrastaplay/game-platform/internal/question"
)

// Config holds connection details for the illustration service.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements session.IllustrationProvider over HTTP.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
	promptURL  string
	imageURL   string
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:    cfg,
		logger:    logger.With().Str("component", "illustration_client").Logger(),
		promptURL: base + "/prompt",
		imageURL:  base + "/image",
	}
}

type promptRequest struct {
	Instruction string `json:"instruction"`
	Question    string `json:"question"`
	Subject     string `json:"subject"`
}

type promptResponse struct {
	Prompt string `json:"prompt"`
}

type imageRequest struct {
	Prompt string `json:"prompt"`
}

type imageResponse struct {
	ImageB64 string `json:"image_b64"`
	MimeType string `json:"mime_type"`
}

// DerivePrompt asks the service to turn the question text into an image
// prompt, guided by the subject-specific instruction template.
func (c *Client) DerivePrompt(ctx context.Context, questionText string, subject question.Subject) (string, error) {
	if c.config.BaseURL == "" {
		return "", fmt.Errorf("illustration endpoint not configured")
	}

	payload := promptRequest{
		Instruction: buildInstruction(subject, questionText),
		Question:    questionText,
		Subject:     string(subject),
	}

	var resp promptResponse
	if err := c.post(ctx, c.promptURL, payload, &resp); err != nil {
		return "", fmt.Errorf("derive prompt: %w", err)
	}
	if resp.Prompt == "" {
		return "", fmt.Errorf("derive prompt: empty prompt returned")
	}
	return resp.Prompt, nil
}

// GenerateImage renders a single image for the derived prompt and returns it
// as a directly displayable data URI.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (question.Image, error) {
	var resp imageResponse
	if err := c.post(ctx, c.imageURL, imageRequest{Prompt: prompt}, &resp); err != nil {
		return question.Image{}, fmt.Errorf("generate image: %w", err)
	}
	if resp.ImageB64 == "" {
		return question.Image{}, fmt.Errorf("generate image: empty image returned")
	}

	mime := resp.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return question.Image{
		Src: fmt.Sprintf("data:%s;base64,%s", mime, resp.ImageB64),
		Alt: prompt,
	}, nil
}

func (c *Client) post(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("service returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
