package grading

import "math"

// NormalizeScore converts score/maxScore to a percentage in [0, 100].
func NormalizeScore(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return Clamp(score/maxScore*100, 0, 100)
}

// FeedbackMessage picks the feedback line for a correctness percentage.
func FeedbackMessage(correctness float64) string {
	switch {
	case correctness >= 90:
		return "Excellent! Your answer is highly accurate."
	case correctness >= 75:
		return "Good work! Your answer is mostly correct."
	case correctness >= 60:
		return "Fair attempt. Your answer captures some key points."
	case correctness >= 40:
		return "Needs improvement. Consider reviewing the material."
	default:
		return "Incorrect. Please review the topic and try again."
	}
}

func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ZeroResult is a zero score carrying only a message.
func ZeroResult(maxPoints int, message string) GradeResult {
	return GradeResult{
		MaxScore: float64(maxPoints),
		Feedback: Feedback{Message: message},
	}
}

func binaryResult(correct bool, maxPoints int, fb Feedback) GradeResult {
	res := GradeResult{MaxScore: float64(maxPoints)}
	if correct {
		res.Score = float64(maxPoints)
		res.Correctness = 100
	}
	fb.Correctness = res.Correctness
	res.Feedback = fb
	return res
}
