package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"assessment_engine/internal/grading"
)

type fakeGenerator struct {
	replies []string
	errs    []error
	calls   int
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return f.replies[len(f.replies)-1], nil
}

func newTestGemini(gen generator) *GeminiBackend {
	return &GeminiBackend{model: DefaultGeminiModel, gen: gen, attempts: 3}
}

func TestGeminiBackendStripsCodeFences(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"Here you go:\n```json\n{\"score\": \"4\", \"feedback\": \"ok\"}\n```"}}
	b := newTestGemini(gen)

	got := b.GradeAnswer(context.Background(), essayQuestion, "answer")
	if got.Score != 4 || got.Correctness != 40 || got.Feedback.Message != "ok" {
		t.Fatalf("got %+v", got)
	}
	if !strings.Contains(gen.prompts[0], "**Question Type:** essay") {
		t.Fatalf("prompt = %q", gen.prompts[0])
	}
}

func TestGeminiBackendRetriesTransientErrors(t *testing.T) {
	gen := &fakeGenerator{
		errs:    []error{errors.New("503 unavailable"), nil},
		replies: []string{"", `{"score": 10}`},
	}
	got := newTestGemini(gen).GradeAnswer(context.Background(), essayQuestion, "answer")
	if gen.calls != 2 || got.Score != 10 {
		t.Fatalf("calls = %d, got %+v", gen.calls, got)
	}
}

func TestGeminiBackendFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	gen := &fakeGenerator{errs: []error{boom, boom, boom}, replies: []string{""}}
	got := newTestGemini(gen).GradeAnswer(context.Background(), essayQuestion, "answer")

	if gen.calls != 3 {
		t.Fatalf("calls = %d", gen.calls)
	}
	if got.Score != 0 || got.Correctness != 0 || got.MaxScore != 10 {
		t.Fatalf("got %+v", got)
	}
	if got.Feedback.Message != "Error during Gemini grading: quota exceeded" || got.Feedback.Error != "quota exceeded" {
		t.Fatalf("feedback = %+v", got.Feedback)
	}
}

func TestGeminiBackendStopsRetryingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &fakeGenerator{errs: []error{errors.New("flaky"), errors.New("flaky"), errors.New("flaky")}, replies: []string{""}}
	b := newTestGemini(gen)
	b.backoff = 1

	got := b.GradeAnswer(ctx, essayQuestion, "answer")
	if gen.calls != 1 {
		t.Fatalf("calls = %d", gen.calls)
	}
	if !strings.Contains(got.Feedback.Message, context.Canceled.Error()) {
		t.Fatalf("message = %q", got.Feedback.Message)
	}
}

func TestGeminiBackendSubmission(t *testing.T) {
	gen := &fakeGenerator{replies: []string{`{"score": 2}`, `{"score": 5}`}}
	answers := []grading.Answer{
		{ID: 1, Question: grading.Question{ID: 1, Type: grading.ShortAnswer, ExpectedAnswer: map[string]any{"answer": "x"}, Points: 3}, Text: "x"},
		{ID: 2, Question: grading.Question{ID: 2, Type: grading.ShortAnswer, ExpectedAnswer: map[string]any{"answer": "y"}, Points: 5}, Text: "y"},
	}
	got := newTestGemini(gen).GradeSubmission(context.Background(), answers)
	if got.TotalScore != 7 || got.MaxScore != 8 {
		t.Fatalf("got %+v", got)
	}
}

func TestNewGeminiBackendRequiresKey(t *testing.T) {
	if _, err := NewGeminiBackend(context.Background(), "", ""); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v", err)
	}
}
