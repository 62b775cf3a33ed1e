package grading

import "testing"

func TestGradeMultipleChoice(t *testing.T) {
	tests := []struct {
		name     string
		student  string
		expected string
		points   int
		score    float64
		message  string
	}{
		{name: "correct lowercase key", student: "B", expected: "b", points: 5, score: 5, message: "Correct!"},
		{name: "correct with spaces", student: "  c ", expected: "C", points: 3, score: 3, message: "Correct!"},
		{name: "wrong", student: "C", expected: "b", points: 5, score: 0, message: "Incorrect. The correct answer is B."},
		{name: "empty", student: "", expected: "A", points: 2, score: 0, message: "Incorrect. The correct answer is A."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GradeMultipleChoice(tc.student, tc.expected, tc.points)
			if got.Score != tc.score {
				t.Fatalf("score = %v, want %v", got.Score, tc.score)
			}
			if got.MaxScore != float64(tc.points) {
				t.Fatalf("max score = %v", got.MaxScore)
			}
			wantPct := 0.0
			if tc.score > 0 {
				wantPct = 100
			}
			if got.Correctness != wantPct || got.Feedback.Correctness != wantPct {
				t.Fatalf("correctness = %v/%v, want %v", got.Correctness, got.Feedback.Correctness, wantPct)
			}
			if got.Feedback.Message != tc.message {
				t.Fatalf("message = %q, want %q", got.Feedback.Message, tc.message)
			}
		})
	}
}

func TestGradeMultipleChoiceFeedbackCarriesChoices(t *testing.T) {
	got := GradeMultipleChoice(" d", "b ", 1)
	if got.Feedback.Expected != "B" || got.Feedback.Student != "D" {
		t.Fatalf("feedback = %+v", got.Feedback)
	}
}

func TestNormalizeBoolToken(t *testing.T) {
	tests := map[string]string{
		"true": "true", "T": "true", " Yes ": "true", "y": "true", "1": "true",
		"FALSE": "false", "f": "false", "No": "false", "n": "false", "0": "false",
		"maybe": "maybe", " Perhaps ": "perhaps", "": "",
	}
	for in, want := range tests {
		if got := NormalizeBoolToken(in); got != want {
			t.Errorf("NormalizeBoolToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGradeTrueFalse(t *testing.T) {
	tests := []struct {
		name     string
		student  string
		expected string
		score    float64
		message  string
	}{
		{name: "synonym yes", student: "yes", expected: "True", score: 10, message: "Correct!"},
		{name: "digit zero", student: "0", expected: "false", score: 10, message: "Correct!"},
		{name: "padded letter", student: " F ", expected: "no", score: 10, message: "Correct!"},
		{name: "wrong", student: "false", expected: "true", score: 0, message: "Incorrect. The correct answer is True."},
		{name: "unmapped token", student: "maybe", expected: "true", score: 0, message: "Incorrect. The correct answer is True."},
		{name: "wrong against false", student: "y", expected: "F", score: 0, message: "Incorrect. The correct answer is False."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GradeTrueFalse(tc.student, tc.expected, 10)
			if got.Score != tc.score {
				t.Fatalf("score = %v, want %v", got.Score, tc.score)
			}
			if got.Feedback.Message != tc.message {
				t.Fatalf("message = %q, want %q", got.Feedback.Message, tc.message)
			}
		})
	}
}

func TestGradeTrueFalseUnmappedFeedback(t *testing.T) {
	got := GradeTrueFalse("Maybe", "true", 4)
	if got.Feedback.Student != "maybe" || got.Feedback.Expected != "true" {
		t.Fatalf("feedback = %+v", got.Feedback)
	}
}
