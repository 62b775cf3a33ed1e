package model

import (
	"assessment_engine/internal/grading"
	"time"

	"gorm.io/datatypes"
)

const (
	SubmissionStatusInProgress = "in_progress"
	SubmissionStatusSubmitted  = "submitted"
	SubmissionStatusGraded     = "graded"
)

// Submission is one student's attempt at an exam. A student gets a single
// submission per exam.
type Submission struct {
	BaseModel
	UserID      uint              `gorm:"uniqueIndex:idx_submission_user_exam,priority:1;not null" json:"userId"`
	ExamID      uint              `gorm:"uniqueIndex:idx_submission_user_exam,priority:2;index;not null" json:"examId"`
	Exam        *Exam             `gorm:"foreignKey:ExamID" json:"exam,omitempty"`
	Status      string            `gorm:"size:20;default:'in_progress';index" json:"status"`
	TotalScore  float64           `gorm:"default:0" json:"totalScore"`
	MaxScore    float64           `gorm:"default:0" json:"maxScore"`
	GradedBy    string            `gorm:"size:20" json:"gradedBy,omitempty"`
	SubmittedAt *time.Time        `gorm:"index" json:"submittedAt"`
	GradedAt    *time.Time        `json:"gradedAt"`
	Metadata    datatypes.JSONMap `json:"metadata"`
	Answers     []Answer          `gorm:"foreignKey:SubmissionID" json:"answers,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (s *Submission) PercentageScore() float64 {
	if s.MaxScore > 0 {
		return s.TotalScore / s.MaxScore * 100
	}
	return 0
}

func (s *Submission) IsPassed(passingScore float64) bool {
	return s.PercentageScore() >= passingScore
}

type Answer struct {
	BaseModel
	SubmissionID    uint                                 `gorm:"uniqueIndex:idx_answer_submission_question,priority:1;not null" json:"submissionId"`
	QuestionID      uint                                 `gorm:"uniqueIndex:idx_answer_submission_question,priority:2;index;not null" json:"questionId"`
	Question        *Question                            `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	AnswerText      string                               `gorm:"type:text" json:"answerText"`
	AnswerData      datatypes.JSONMap                    `json:"answerData"`
	Score           float64                              `gorm:"default:0" json:"score"`
	MaxScore        float64                              `gorm:"default:0" json:"maxScore"`
	GradingFeedback datatypes.JSONType[grading.Feedback] `json:"gradingFeedback"`
}

func (Answer) TableName() string {
	return "answers"
}

func (a *Answer) PercentageScore() float64 {
	if a.MaxScore > 0 {
		return a.Score / a.MaxScore * 100
	}
	return 0
}

// ToGrading converts the row to the grader's view of an answer. The
// question association must be loaded.
func (a *Answer) ToGrading() grading.Answer {
	var q grading.Question
	if a.Question != nil {
		q = a.Question.ToGrading()
	}
	return grading.Answer{
		ID:       a.ID,
		Question: q,
		Text:     a.AnswerText,
		Data:     map[string]any(a.AnswerData),
	}
}

// ApplyGrade copies a graded result onto the row.
func (a *Answer) ApplyGrade(g grading.GradedAnswer) {
	a.Score = g.Score
	a.MaxScore = g.MaxScore
	a.GradingFeedback = datatypes.NewJSONType(g.Feedback)
}
