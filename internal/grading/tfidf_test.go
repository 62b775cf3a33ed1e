package grading

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestVectorizerAnalyze(t *testing.T) {
	v := NewVectorizer()
	got := v.Analyze("The quick brown fox, a dog")
	want := []string{"quick", "brown", "fox", "dog", "quick brown", "brown fox", "fox dog"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Analyze = %v, want %v", got, want)
	}
}

func TestVectorizerAnalyzeSkipsSingleRuneTokens(t *testing.T) {
	v := NewVectorizer(WithNGramRange(1, 1))
	got := v.Analyze("x y zz")
	if !reflect.DeepEqual(got, []string{"zz"}) {
		t.Fatalf("Analyze = %v", got)
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	v := NewVectorizer()
	c, err := v.CosineSimilarity("photosynthesis converts light energy", "photosynthesis converts light energy")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c-1) > 1e-9 {
		t.Fatalf("cosine = %v, want 1", c)
	}
}

func TestCosineSimilarityKnownValue(t *testing.T) {
	// apple is shared (idf 1); banana, cherry and both bigrams have idf ln(1.5)+1
	v := NewVectorizer()
	c, err := v.CosineSimilarity("apple banana", "apple cherry")
	if err != nil {
		t.Fatal(err)
	}
	idf := math.Log(1.5) + 1
	want := 1 / (1 + 2*idf*idf)
	if math.Abs(c-want) > 1e-9 {
		t.Fatalf("cosine = %v, want %v", c, want)
	}
}

func TestCosineSimilarityDisjoint(t *testing.T) {
	v := NewVectorizer()
	c, err := v.CosineSimilarity("mitochondria produce energy", "volcanoes erupt lava")
	if err != nil {
		t.Fatal(err)
	}
	if c != 0 {
		t.Fatalf("cosine = %v, want 0", c)
	}
}

func TestCosineSimilarityEmptyVocabulary(t *testing.T) {
	v := NewVectorizer()
	_, err := v.CosineSimilarity("the and of", "it is")
	if !errors.Is(err, ErrEmptyVocabulary) {
		t.Fatalf("err = %v, want ErrEmptyVocabulary", err)
	}
}

func TestCosineOneSideOnlyStopWords(t *testing.T) {
	v := NewVectorizer()
	c, err := v.CosineSimilarity("gravity pulls objects", "it is")
	if err != nil {
		t.Fatal(err)
	}
	if c != 0 {
		t.Fatalf("cosine = %v, want 0", c)
	}
}

func TestLimitFeatures(t *testing.T) {
	v := NewVectorizer(WithNGramRange(1, 1), WithMaxFeatures(2))
	vecs, err := v.FitTransform([]string{"alpha alpha beta", "alpha gamma gamma delta"})
	if err != nil {
		t.Fatal(err)
	}
	for i, vec := range vecs {
		for term := range vec {
			if term != "alpha" && term != "gamma" {
				t.Fatalf("doc %d kept term %q outside the top 2", i, term)
			}
		}
	}
	if _, ok := vecs[1]["gamma"]; !ok {
		t.Fatal("gamma missing from doc 1")
	}
}

func TestFitTransformIsL2Normalized(t *testing.T) {
	v := NewVectorizer()
	vecs, err := v.FitTransform([]string{"cells divide by mitosis", "cells grow"})
	if err != nil {
		t.Fatal(err)
	}
	for i, vec := range vecs {
		var sum float64
		for _, w := range vec {
			sum += w * w
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("doc %d squared norm = %v", i, sum)
		}
	}
}

func TestKeywordOverlap(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		student  string
		want     float64
	}{
		{name: "half", expected: "the quick brown foxes jump", student: "quick foxes", want: 0.5},
		{name: "all", expected: "gravity pulls objects", student: "objects gravity pulls down", want: 1},
		{name: "none", expected: "gravity pulls objects", student: "magnets", want: 0},
		{name: "no long expected words", expected: "a cat is on", student: "a cat", want: 0},
		{name: "short words ignored", expected: "cats and dogs", student: "and", want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KeywordOverlap(tc.expected, tc.student); got != tc.want {
				t.Fatalf("KeywordOverlap = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSimilarityDegradesOnEmptyVocabulary(t *testing.T) {
	c, o := Similarity(NewVectorizer(), "the and of", "it is")
	if c != 0 || o != 0 {
		t.Fatalf("Similarity = (%v, %v), want (0, 0)", c, o)
	}
}
