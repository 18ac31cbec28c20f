// Package genai rewrites biographies with the Gemini API.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/legacy-registry/profile-api/internal/ports/out/polisher"
)

const DefaultModel = "gemini-2.5-flash"

type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint. Tests point it at a local server.
	BaseURL string
}

type Polisher struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewPolisher returns an error when no API key is configured; callers then run without AI polish.
func NewPolisher(ctx context.Context, cfg Config, logger *zap.Logger) (*Polisher, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("genai: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}
	return &Polisher{client: client, model: cfg.Model, logger: logger}, nil
}

var toneGuides = map[polisher.Tone]string{
	polisher.ToneProfessional:  "polished and professional, suitable for a career profile",
	polisher.ToneWarm:          "warm and personal, as if introduced by a close friend",
	polisher.ToneInspirational: "uplifting and inspirational, highlighting impact on others",
	polisher.ToneFormal:        "formal and dignified, suitable for an official record",
}

func systemInstruction(tone polisher.Tone) string {
	guide, ok := toneGuides[tone]
	if !ok {
		guide = toneGuides[polisher.ToneProfessional]
	}
	return "You edit biographies for a digital legacy profile. Rewrite the biography so it reads " +
		guide + ". Keep every fact, name, date and number. Do not invent achievements. " +
		"Write in the third person, at most 2000 characters, as plain prose without headings or markdown. " +
		"Reply with the rewritten biography only."
}

func (p *Polisher) Polish(ctx context.Context, req polisher.Request) (string, error) {
	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(req.Bio, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction(req.Tone), genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.7),
			MaxOutputTokens:   1024,
		},
	)
	if err != nil {
		mapped := mapError(err)
		p.logger.Warn("bio polish failed", zap.String("model", p.model), zap.Error(err))
		return "", mapped
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		p.logger.Info("bio polish blocked", zap.String("reason", string(resp.PromptFeedback.BlockReason)))
		return "", polisher.ErrContentPolicy
	}
	if len(resp.Candidates) > 0 {
		switch resp.Candidates[0].FinishReason {
		case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist, genai.FinishReasonSPII:
			p.logger.Info("bio polish blocked", zap.String("reason", string(resp.Candidates[0].FinishReason)))
			return "", polisher.ErrContentPolicy
		}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty response", polisher.ErrUnavailable)
	}
	p.logger.Debug("bio polished", zap.String("tone", string(req.Tone)), zap.Duration("latency", time.Since(start)))
	return text, nil
}

func mapError(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	switch code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", polisher.ErrRateLimited, err)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %v", polisher.ErrContentPolicy, err)
	}
	return fmt.Errorf("%w: %v", polisher.ErrUnavailable, err)
}
