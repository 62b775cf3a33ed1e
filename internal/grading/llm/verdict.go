package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"assessment_engine/internal/grading"
)

var (
	ErrMissingAPIKey = errors.New("llm: api key is required")
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Verdict is the JSON object the model is asked to return.
type Verdict struct {
	Score            flexFloat `json:"score"`
	Feedback         *string   `json:"feedback"`
	Strengths        []string  `json:"strengths"`
	Improvements     []string  `json:"improvements"`
	DetailedAnalysis string    `json:"detailed_analysis"`
}

// flexFloat accepts 7, 7.5 and "7.5".
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return errors.New("score is null")
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid score %s: %w", string(b), err)
	}
	*f = flexFloat(v)
	return nil
}

// ParseVerdict decodes the model output, tolerating markdown code fences
// around the JSON object.
func ParseVerdict(text string) (Verdict, error) {
	text = stripCodeFences(text)
	if text == "" {
		return Verdict{}, ErrEmptyResponse
	}
	var v Verdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return Verdict{}, fmt.Errorf("bad JSON: %w", err)
	}
	return v, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	return strings.TrimSpace(s)
}

// verdictResult clamps the model's score into [0, maxPoints].
func verdictResult(v Verdict, maxPoints int) grading.GradeResult {
	score := grading.Clamp(float64(v.Score), 0, float64(maxPoints))
	correctness := grading.Round2(grading.NormalizeScore(score, float64(maxPoints)))

	msg := "No feedback provided"
	if v.Feedback != nil {
		msg = *v.Feedback
	}
	return grading.GradeResult{
		Score:    grading.Round2(score),
		MaxScore: float64(maxPoints),
		Feedback: grading.Feedback{
			Message:          msg,
			Correctness:      correctness,
			Strengths:        v.Strengths,
			Improvements:     v.Improvements,
			DetailedAnalysis: v.DetailedAnalysis,
		},
		Correctness: correctness,
	}
}

// failedResult is the zero-score result for an answer the provider could not
// grade.
func failedResult(provider string, maxPoints int, err error) grading.GradeResult {
	return grading.GradeResult{
		MaxScore: float64(maxPoints),
		Feedback: grading.Feedback{
			Message: fmt.Sprintf("Error during %s grading: %v", provider, err),
			Error:   err.Error(),
		},
	}
}

// IsFailed reports whether r came from a failed provider call.
func IsFailed(r grading.GradeResult) bool { return r.Feedback.Error != "" }
