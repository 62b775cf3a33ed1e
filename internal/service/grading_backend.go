package service

import (
	"assessment_engine/internal/config"
	"assessment_engine/internal/grading"
	"assessment_engine/internal/grading/llm"
	"assessment_engine/internal/util"
	"context"
	"fmt"
	"net/http"
	"strings"
)

// NewGradingBackend maps grading.service to a backend. Credentials are
// checked here so a misconfiguration fails at start-up, not on the first
// submission.
func NewGradingBackend(cfg config.GradingConfig) (grading.Backend, error) {
	switch name := strings.ToLower(strings.TrimSpace(cfg.Service)); name {
	case "", "local", "mock":
		var opts []grading.Option
		if cfg.MaxFeatures > 0 {
			opts = append(opts, grading.WithVectorizer(grading.NewVectorizer(grading.WithMaxFeatures(cfg.MaxFeatures))))
		}
		return grading.NewLocalBackend(opts...), nil

	case "openai", "ai":
		if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
			return nil, fmt.Errorf("%w: grading.service is %q but OPENAI_API_KEY is not configured", util.ErrMissingGradingCredential, name)
		}
		// the per-answer deadline comes from the context; this only bounds a stuck connection
		client := &http.Client{Timeout: 2 * cfg.Timeout}
		b, err := llm.NewOpenAIBackend(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, client)
		if err != nil {
			return nil, err
		}
		return b, nil

	case "gemini":
		if strings.TrimSpace(cfg.Gemini.APIKey) == "" {
			return nil, fmt.Errorf("%w: grading.service is %q but GEMINI_API_KEY is not configured", util.ErrMissingGradingCredential, name)
		}
		b, err := llm.NewGeminiBackend(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}
		return b, nil

	default:
		return nil, fmt.Errorf("%w: %q, must be local, openai or gemini", util.ErrUnknownGradingBackend, cfg.Service)
	}
}
