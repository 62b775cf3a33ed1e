package grading

import "context"

// GradeSubmission grades answers in order with g and aggregates the totals.
// Answers are independent: one answer's result never affects another.
func GradeSubmission(ctx context.Context, g AnswerGrader, answers []Answer) SubmissionGradeResult {
	results := make([]GradeResult, len(answers))
	for i, a := range answers {
		results[i] = g.GradeAnswer(ctx, a.Question, a.EffectiveText())
	}
	return Summarize(answers, results)
}

// Summarize pairs answers with their results (same index) and sums the
// scores in answer order.
func Summarize(answers []Answer, results []GradeResult) SubmissionGradeResult {
	out := SubmissionGradeResult{GradedAnswers: make([]GradedAnswer, 0, len(answers))}
	for i, a := range answers {
		r := results[i]
		out.TotalScore += r.Score
		out.MaxScore += r.MaxScore
		out.GradedAnswers = append(out.GradedAnswers, GradedAnswer{
			AnswerID:    a.ID,
			QuestionID:  a.Question.ID,
			Score:       r.Score,
			MaxScore:    r.MaxScore,
			Correctness: r.Correctness,
			Feedback:    r.Feedback,
		})
	}
	return out
}
