package llm

import (
	"strings"
	"testing"

	"assessment_engine/internal/grading"
)

func TestBuildPromptIncludesOptionsForMultipleChoice(t *testing.T) {
	q := grading.Question{
		Type:           grading.MultipleChoice,
		ExpectedAnswer: map[string]any{"answer": "B"},
		Options:        map[string]any{"choices": []any{"A. Mercury", "B. Venus"}},
		Points:         2,
	}
	p := BuildPrompt(q, "B")
	for _, want := range []string{"**Maximum Points:** 2", "**Expected Answer:**\nB", "**Available Options:**", "B. Venus", `"detailed_analysis"`} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestBuildPromptOmitsOptionsForOtherTypes(t *testing.T) {
	q := grading.Question{
		Type:           grading.ShortAnswer,
		ExpectedAnswer: map[string]any{"answer": "Venus"},
		Options:        map[string]any{"choices": []any{"ignored"}},
		Points:         2,
	}
	if p := BuildPrompt(q, "Venus"); strings.Contains(p, "Available Options") {
		t.Fatalf("unexpected options in prompt:\n%s", p)
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		score   float64
		wantErr bool
	}{
		{name: "plain", in: `{"score": 3}`, score: 3},
		{name: "fenced", in: "```json\n{\"score\": 2.5}\n```", score: 2.5},
		{name: "bare fence", in: "```\n{\"score\": 1}\n```", score: 1},
		{name: "string score", in: `{"score": " 6 "}`, score: 6},
		{name: "missing score", in: `{"feedback": "hm"}`, score: 0},
		{name: "null score", in: `{"score": null}`, wantErr: true},
		{name: "garbage", in: "I think 7/10", wantErr: true},
		{name: "empty", in: "   ", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseVerdict(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", v)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if float64(v.Score) != tc.score {
				t.Fatalf("score = %v, want %v", v.Score, tc.score)
			}
		})
	}
}
