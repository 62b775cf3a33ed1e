package grading

import (
	"strings"
	"unicode"
)

// NormalizeText lowercases s, collapses whitespace runs to a single space and
// drops every rune that is not a word character, whitespace, '.' or ','.
// Whitespace is collapsed before punctuation is removed, so "a - b" keeps two
// spaces; callers split on whitespace runs.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		if isWordRune(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
