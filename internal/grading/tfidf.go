package grading

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

var ErrEmptyVocabulary = errors.New("empty vocabulary; documents only contain stop words")

// tokens are runs of two or more word characters
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vector is a sparse term -> weight vector.
type Vector map[string]float64

// Vectorizer builds TF-IDF vectors over a small corpus. It keeps no state
// between calls: every FitTransform fits a fresh vocabulary, so a Vectorizer
// is safe for concurrent use once constructed.
type Vectorizer struct {
	MinN        int
	MaxN        int
	MaxFeatures int
	StopWords   map[string]struct{}
}

type VectorizerOption func(*Vectorizer)

func WithNGramRange(minN, maxN int) VectorizerOption {
	return func(v *Vectorizer) { v.MinN, v.MaxN = minN, maxN }
}
func WithMaxFeatures(n int) VectorizerOption { return func(v *Vectorizer) { v.MaxFeatures = n } }
func WithStopWords(words []string) VectorizerOption {
	return func(v *Vectorizer) { v.StopWords = toSet(words) }
}

// NewVectorizer defaults to unigrams and bigrams, English stop words and a
// vocabulary of at most 1000 terms.
func NewVectorizer(opts ...VectorizerOption) *Vectorizer {
	v := &Vectorizer{
		MinN:        1,
		MaxN:        2,
		MaxFeatures: 1000,
		StopWords:   englishStopWords,
	}
	for _, o := range opts {
		o(v)
	}
	if v.MinN < 1 {
		v.MinN = 1
	}
	if v.MaxN < v.MinN {
		v.MaxN = v.MinN
	}
	return v
}

// Analyze lowercases doc, tokenizes it, drops stop words and emits the
// configured n-grams.
func (v *Vectorizer) Analyze(doc string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(doc), -1)
	tokens := raw[:0]
	for _, t := range raw {
		if _, stop := v.StopWords[t]; !stop {
			tokens = append(tokens, t)
		}
	}

	terms := make([]string, 0, len(tokens)*(v.MaxN-v.MinN+1))
	for n := v.MinN; n <= v.MaxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// FitTransform fits the vocabulary and smoothed IDF weights on docs and
// returns one L2-normalized TF-IDF vector per document.
func (v *Vectorizer) FitTransform(docs []string) ([]Vector, error) {
	counts := make([]map[string]int, len(docs))
	totals := make(map[string]int)
	df := make(map[string]int)
	for i, d := range docs {
		c := make(map[string]int)
		for _, t := range v.Analyze(d) {
			c[t]++
			totals[t]++
		}
		for t := range c {
			df[t]++
		}
		counts[i] = c
	}
	if len(totals) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocab := v.limitFeatures(totals)
	n := float64(len(docs))

	out := make([]Vector, len(docs))
	for i, c := range counts {
		vec := make(Vector)
		var norm float64
		for t := range vocab {
			tf, ok := c[t]
			if !ok {
				continue
			}
			idf := math.Log((1+n)/(1+float64(df[t]))) + 1
			w := float64(tf) * idf
			vec[t] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for t := range vec {
				vec[t] /= norm
			}
		}
		out[i] = vec
	}
	return out, nil
}

// limitFeatures keeps the MaxFeatures most frequent terms across the corpus,
// ties broken alphabetically.
func (v *Vectorizer) limitFeatures(totals map[string]int) map[string]struct{} {
	terms := make([]string, 0, len(totals))
	for t := range totals {
		terms = append(terms, t)
	}
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if totals[terms[i]] != totals[terms[j]] {
				return totals[terms[i]] > totals[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.MaxFeatures]
	}
	return toSet(terms)
}

// CosineSimilarity fits a vocabulary on the pair {a, b} and returns the
// cosine of their TF-IDF vectors, in [0, 1].
func (v *Vectorizer) CosineSimilarity(a, b string) (float64, error) {
	vecs, err := v.FitTransform([]string{a, b})
	if err != nil {
		return 0, err
	}
	return Cosine(vecs[0], vecs[1]), nil
}

// Cosine returns 0 when either vector is all zeros.
func Cosine(a, b Vector) float64 {
	var dot, na, nb float64
	for t, w := range a {
		na += w * w
		if bw, ok := b[t]; ok {
			dot += w * bw
		}
	}
	for _, w := range b {
		nb += w * w
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return Clamp(dot/(math.Sqrt(na)*math.Sqrt(nb)), 0, 1)
}
