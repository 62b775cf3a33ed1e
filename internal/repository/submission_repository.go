package repository

import (
	"assessment_engine/internal/model"
	"assessment_engine/internal/util"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

// Create inserts the submission together with its answers.
func (r *SubmissionRepository) Create(submission *model.Submission) error {
	return r.DB.Create(submission).Error
}

func (r *SubmissionRepository) ExistsForUserExam(userID, examID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Submission{}).
		Where("user_id = ? AND exam_id = ?", userID, examID).
		Count(&count).Error
	return count > 0, err
}

// FindByID loads a submission with its exam and its answers, the answers
// ordered by question order.
func (r *SubmissionRepository) FindByID(id uint) (*model.Submission, error) {
	var submission model.Submission
	err := r.DB.
		Preload("Exam").
		Preload("Answers").
		Preload("Answers.Question").
		First(&submission, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(submission.Answers, func(i, j int) bool {
		return answerOrder(submission.Answers[i]) < answerOrder(submission.Answers[j])
	})
	return &submission, nil
}

func answerOrder(a model.Answer) int {
	if a.Question == nil {
		return 0
	}
	return a.Question.Order
}

// MarkSubmitted moves an in-progress submission to submitted.
func (r *SubmissionRepository) MarkSubmitted(id uint, at time.Time) error {
	res := r.DB.Model(&model.Submission{}).
		Where("id = ? AND status = ?", id, model.SubmissionStatusInProgress).
		Updates(map[string]interface{}{
			"status":       model.SubmissionStatusSubmitted,
			"submitted_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrSubmissionClosed
	}
	return nil
}

// SaveGrades writes every answer's score and feedback and the submission
// totals in a single transaction.
func (r *SubmissionRepository) SaveGrades(submission *model.Submission) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for i := range submission.Answers {
			a := &submission.Answers[i]
			if err := tx.Model(&model.Answer{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
				"score":            a.Score,
				"max_score":        a.MaxScore,
				"grading_feedback": a.GradingFeedback,
			}).Error; err != nil {
				return err
			}
		}

		return tx.Model(&model.Submission{}).Where("id = ?", submission.ID).Updates(map[string]interface{}{
			"total_score": submission.TotalScore,
			"max_score":   submission.MaxScore,
			"status":      submission.Status,
			"graded_at":   submission.GradedAt,
			"graded_by":   submission.GradedBy,
		}).Error
	})
}
