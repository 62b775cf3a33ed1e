package grading

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
)

// Question is the view of a question the graders need.
type Question struct {
	ID             uint
	Type           QuestionType
	ExpectedAnswer map[string]any // at least {"answer": ...}
	Options        map[string]any // {"choices": [...]} for multiple choice
	Points         int
}

// ExpectedText returns expected_answer["answer"] as a string.
func (q Question) ExpectedText() string {
	if q.ExpectedAnswer == nil {
		return ""
	}
	return stringify(q.ExpectedAnswer["answer"])
}

// Answer is a student's response to one question.
type Answer struct {
	ID       uint
	Question Question
	Text     string
	Data     map[string]any // {"selected": "B"} for multiple choice
}

// EffectiveText prefers the free text and falls back to data["selected"].
func (a Answer) EffectiveText() string {
	if a.Text != "" {
		return a.Text
	}
	if a.Data == nil {
		return ""
	}
	return stringify(a.Data["selected"])
}

type Feedback struct {
	Message     string  `json:"message"`
	Correctness float64 `json:"correctness"`

	// exact match
	Expected string `json:"expected,omitempty"`
	Student  string `json:"student,omitempty"`

	// similarity
	SimilarityScore *float64 `json:"similarity_score,omitempty"`
	KeywordScore    *float64 `json:"keyword_score,omitempty"`
	WordCount       *int     `json:"word_count,omitempty"`

	// remote models
	Strengths        []string `json:"strengths,omitempty"`
	Improvements     []string `json:"improvements,omitempty"`
	DetailedAnalysis string   `json:"detailed_analysis,omitempty"`
	Error            string   `json:"error,omitempty"`
}

type GradeResult struct {
	Score       float64  `json:"score"`
	MaxScore    float64  `json:"max_score"`
	Feedback    Feedback `json:"feedback"`
	Correctness float64  `json:"correctness"`
}

type GradedAnswer struct {
	AnswerID    uint     `json:"answer_id"`
	QuestionID  uint     `json:"question_id"`
	Score       float64  `json:"score"`
	MaxScore    float64  `json:"max_score"`
	Correctness float64  `json:"correctness"`
	Feedback    Feedback `json:"feedback"`
}

type SubmissionGradeResult struct {
	TotalScore    float64        `json:"total_score"`
	MaxScore      float64        `json:"max_score"`
	GradedAnswers []GradedAnswer `json:"graded_answers"`
}

// AnswerGrader grades a single answer. Implementations never fail: problems
// are reported through the returned feedback with a zero score.
type AnswerGrader interface {
	GradeAnswer(ctx context.Context, q Question, studentAnswer string) GradeResult
}

// Backend is a complete grading implementation. Callers are agnostic to
// which backend is active.
type Backend interface {
	AnswerGrader
	GradeSubmission(ctx context.Context, answers []Answer) SubmissionGradeResult
	Name() string
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
