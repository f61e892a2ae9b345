package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/vhsolanki8600/bank-to-tally/internal/config"
	"github.com/vhsolanki8600/bank-to-tally/internal/logger"
)

// GeminiExtractor implements Extractor with the Gemini API.
type GeminiExtractor struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiExtractor creates a client for the configured model.
func NewGeminiExtractor(ctx context.Context, cfg config.GeminiConfig) (*GeminiExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("NewGeminiExtractor: %w", config.ErrMissingAPIKey)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiExtractor{client: client, model: model, timeout: cfg.Timeout}, nil
}

// Model returns the model name sent with each request.
func (g *GeminiExtractor) Model() string {
	return g.model
}

// Extract sends one chunk to the model and returns its raw text.
func (g *GeminiExtractor) Extract(ctx context.Context, req ExtractRequest) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	parts := []*genai.Part{{Text: buildPrompt(req)}}
	if !req.Payload.IsText() {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: req.Payload.MIMEType,
				Data:     req.Payload.Data,
			},
		})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(float32(0)),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, genCfg)
	if err != nil {
		if IsRateLimited(err) {
			return "", fmt.Errorf("Extract: generate content: %w: %w", ErrRateLimited, err)
		}
		return "", fmt.Errorf("Extract: generate content: %w", err)
	}

	raw := resp.Text()
	log := logger.FromContext(ctx)
	log.Debug().
		Str("model", g.model).
		Int("chunk", req.Chunk.Index).
		Dur("latency", time.Since(start)).
		Int("response_bytes", len(raw)).
		Msg("model responded")

	if raw == "" {
		return "", errors.New("Extract: empty response from model")
	}
	return raw, nil
}
