package model

import (
	"assessment_engine/internal/grading"
	"time"

	"gorm.io/datatypes"
)

type Exam struct {
	BaseModel
	Title           string            `gorm:"size:200;not null" json:"title"`
	Description     string            `gorm:"type:text" json:"description"`
	DurationMinutes int               `json:"durationMinutes"`
	StartTime       *time.Time        `gorm:"index" json:"startTime"`
	EndTime         *time.Time        `gorm:"index" json:"endTime"`
	IsPublished     bool              `gorm:"index;default:false" json:"isPublished"`
	Metadata        datatypes.JSONMap `json:"metadata"`
	Questions       []Question        `gorm:"foreignKey:ExamID" json:"questions,omitempty"`
}

func (Exam) TableName() string {
	return "exams"
}

// TotalPoints sums the points of the loaded questions.
func (e *Exam) TotalPoints() int {
	total := 0
	for _, q := range e.Questions {
		total += q.Points
	}
	return total
}

type Question struct {
	BaseModel
	ExamID         uint              `gorm:"index:idx_exam_order,priority:1;not null" json:"examId"`
	QuestionType   string            `gorm:"size:20;not null" json:"questionType"` // multiple_choice, true_false, short_answer, essay
	QuestionText   string            `gorm:"type:text" json:"questionText"`
	ExpectedAnswer datatypes.JSONMap `json:"expectedAnswer"`
	Options        datatypes.JSONMap `json:"options"`
	Points         int               `gorm:"default:1" json:"points"`
	Order          int               `gorm:"index:idx_exam_order,priority:2;default:0" json:"order"`
}

func (Question) TableName() string {
	return "questions"
}

// ToGrading converts the row to the grader's view of a question.
func (q *Question) ToGrading() grading.Question {
	return grading.Question{
		ID:             q.ID,
		Type:           grading.QuestionType(q.QuestionType),
		ExpectedAnswer: map[string]any(q.ExpectedAnswer),
		Options:        map[string]any(q.Options),
		Points:         q.Points,
	}
}
