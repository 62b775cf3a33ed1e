package grading

import (
	"strings"
	"unicode/utf8"
)

const minKeywordLen = 4

// KeywordOverlap returns the share of the expected keywords (words longer
// than three characters) that also appear in the student text. Only the
// expected side is the denominator, so extra student words are not penalized.
func KeywordOverlap(expected, student string) float64 {
	want := keywords(expected)
	if len(want) == 0 {
		return 0
	}
	got := keywords(student)
	hits := 0
	for w := range want {
		if _, ok := got[w]; ok {
			hits++
		}
	}
	return Clamp(float64(hits)/float64(len(want)), 0, 1)
}

func keywords(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		if utf8.RuneCountInString(w) >= minKeywordLen {
			out[w] = struct{}{}
		}
	}
	return out
}

// Similarity scores two normalized texts. A vectorization failure (for
// example an all-stop-word pair) degrades the cosine to 0; the keyword
// overlap is still computed.
func Similarity(v *Vectorizer, expected, student string) (cosine, overlap float64) {
	c, err := v.CosineSimilarity(expected, student)
	if err != nil {
		c = 0
	}
	return c, KeywordOverlap(expected, student)
}
