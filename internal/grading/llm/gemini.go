package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"assessment_engine/internal/grading"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	GeminiBackendName  = "gemini"
	DefaultGeminiModel = "gemini-1.5-flash"
)

// generator returns the raw text the model produced for prompt.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiBackend grades through the Google Generative AI API.
type GeminiBackend struct {
	model    string
	gen      generator
	closer   func() error
	attempts int
	backoff  time.Duration
}

func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini", ErrMissingAPIKey)
	}
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultGeminiModel
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	m := cl.GenerativeModel(model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:     ptrFloat32(0.3),
		TopP:            ptrFloat32(0.95),
		TopK:            ptrInt32(40),
		MaxOutputTokens: ptrInt32(2048),
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}

	return &GeminiBackend{
		model:    model,
		gen:      genaiGenerator{model: m},
		closer:   cl.Close,
		attempts: 3,
		backoff:  300 * time.Millisecond,
	}, nil
}

func (b *GeminiBackend) Name() string  { return GeminiBackendName }
func (b *GeminiBackend) Model() string { return b.model }

func (b *GeminiBackend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

func (b *GeminiBackend) GradeAnswer(ctx context.Context, q grading.Question, studentAnswer string) grading.GradeResult {
	text, err := b.generate(ctx, BuildPrompt(q, studentAnswer))
	if err != nil {
		return failedResult("Gemini", q.Points, err)
	}
	v, err := ParseVerdict(text)
	if err != nil {
		return failedResult("Gemini", q.Points, err)
	}
	return verdictResult(v, q.Points)
}

func (b *GeminiBackend) GradeSubmission(ctx context.Context, answers []grading.Answer) grading.SubmissionGradeResult {
	return grading.GradeSubmission(ctx, b, answers)
}

// generate retries transient failures with a linear backoff.
func (b *GeminiBackend) generate(ctx context.Context, prompt string) (string, error) {
	attempts := b.attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := b.gen.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * b.backoff):
		}
	}
	return "", lastErr
}

type genaiGenerator struct {
	model *genai.GenerativeModel
}

func (g genaiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	txt := firstText(resp)
	if txt == "" {
		return "", ErrEmptyResponse
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
func ptrInt32(v int32) *int32       { return &v }
