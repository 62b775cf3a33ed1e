package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"assessment_engine/internal/grading"
)

const (
	OpenAIBackendName    = "openai"
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// OpenAIBackend grades through an OpenAI-compatible chat completions API.
type OpenAIBackend struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAIBackend fails when apiKey is empty. A nil client uses
// http.DefaultClient; the per-answer deadline comes from the context.
func NewOpenAIBackend(apiKey, model, baseURL string, client *http.Client) (*OpenAIBackend, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: openai", ErrMissingAPIKey)
	}
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAIBackend{apiKey: apiKey, model: model, baseURL: baseURL, client: client}, nil
}

func (b *OpenAIBackend) Name() string  { return OpenAIBackendName }
func (b *OpenAIBackend) Model() string { return b.model }

func (b *OpenAIBackend) GradeAnswer(ctx context.Context, q grading.Question, studentAnswer string) grading.GradeResult {
	content, err := b.complete(ctx, BuildPrompt(q, studentAnswer))
	if err != nil {
		return failedResult("OpenAI", q.Points, err)
	}
	v, err := ParseVerdict(content)
	if err != nil {
		return failedResult("OpenAI", q.Points, err)
	}
	return verdictResult(v, q.Points)
}

func (b *OpenAIBackend) GradeSubmission(ctx context.Context, answers []grading.Answer) grading.SubmissionGradeResult {
	return grading.GradeSubmission(ctx, b, answers)
}

func (b *OpenAIBackend) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.3,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}
