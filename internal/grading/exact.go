package grading

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var boolTokens = map[string]string{
	"true": "true", "t": "true", "yes": "true", "y": "true", "1": "true",
	"false": "false", "f": "false", "no": "false", "n": "false", "0": "false",
}

// NormalizeBoolToken folds true/false synonyms. Unknown tokens pass through
// lowercased and trimmed, so "maybe" simply never matches.
func NormalizeBoolToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if v, ok := boolTokens[s]; ok {
		return v
	}
	return s
}

// GradeMultipleChoice compares choice letters case-insensitively.
func GradeMultipleChoice(student, expected string, maxPoints int) GradeResult {
	got := strings.ToUpper(strings.TrimSpace(student))
	want := strings.ToUpper(strings.TrimSpace(expected))
	correct := got == want

	msg := "Correct!"
	if !correct {
		msg = "Incorrect. The correct answer is " + want + "."
	}
	return binaryResult(correct, maxPoints, Feedback{Message: msg, Expected: want, Student: got})
}

func GradeTrueFalse(student, expected string, maxPoints int) GradeResult {
	got := NormalizeBoolToken(student)
	want := NormalizeBoolToken(expected)
	correct := got == want

	msg := "Correct!"
	if !correct {
		msg = "Incorrect. The correct answer is " + capitalize(want) + "."
	}
	return binaryResult(correct, maxPoints, Feedback{Message: msg, Expected: want, Student: got})
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
