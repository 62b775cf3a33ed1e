package grading

import (
	"context"
	"strings"
)

// Strategy grades one question type.
type Strategy interface {
	Grade(ctx context.Context, q Question, response string) GradeResult
}

type multipleChoiceStrategy struct{}

func (multipleChoiceStrategy) Grade(_ context.Context, q Question, response string) GradeResult {
	return GradeMultipleChoice(response, q.ExpectedText(), q.Points)
}

type trueFalseStrategy struct{}

func (trueFalseStrategy) Grade(_ context.Context, q Question, response string) GradeResult {
	return GradeTrueFalse(response, q.ExpectedText(), q.Points)
}

// similarityStrategy blends TF-IDF cosine and keyword overlap.
type similarityStrategy struct {
	vectorizer    *Vectorizer
	cosineWeight  float64
	keywordWeight float64
	wordCount     bool
}

// Grade derives score and correctness from the same blend and rounds each
// to 2 decimals on its own, so correctness can differ from
// round(100*score/max, 2) in the last place.
func (s similarityStrategy) Grade(_ context.Context, q Question, response string) GradeResult {
	student := NormalizeText(response)
	if student == "" {
		return ZeroResult(q.Points, "No answer provided")
	}
	expected := NormalizeText(q.ExpectedText())

	cosine, overlap := Similarity(s.vectorizer, expected, student)
	blended := Clamp(cosine*s.cosineWeight+overlap*s.keywordWeight, 0, 1)
	correctness := blended * 100
	score := correctness / 100 * float64(q.Points)

	simPct := Round2(cosine * 100)
	kwPct := Round2(overlap * 100)
	fb := Feedback{
		Message:         FeedbackMessage(correctness),
		Correctness:     Round2(correctness),
		SimilarityScore: &simPct,
		KeywordScore:    &kwPct,
	}
	if s.wordCount {
		n := len(strings.Fields(student))
		fb.WordCount = &n
	}
	return GradeResult{
		Score:       Round2(score),
		MaxScore:    float64(q.Points),
		Feedback:    fb,
		Correctness: Round2(correctness),
	}
}

// ShortAnswerStrategy weighs cosine 0.7 and keyword overlap 0.3.
func ShortAnswerStrategy(v *Vectorizer) Strategy {
	return similarityStrategy{vectorizer: v, cosineWeight: 0.7, keywordWeight: 0.3}
}

// EssayStrategy weighs cosine 0.8 and keyword overlap 0.2 and reports the
// word count of the answer.
func EssayStrategy(v *Vectorizer) Strategy {
	return similarityStrategy{vectorizer: v, cosineWeight: 0.8, keywordWeight: 0.2, wordCount: true}
}
