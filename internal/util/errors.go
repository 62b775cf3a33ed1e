package util

import "errors"

var (
	ErrExamNotFound             = errors.New("exam not found")
	ErrQuestionNotInExam        = errors.New("question does not belong to exam")
	ErrDuplicateAnswer          = errors.New("question answered more than once")
	ErrNoAnswers                = errors.New("at least one answer is required")
	ErrUnansweredQuestion       = errors.New("all questions must be answered")
	ErrEmptyAnswer              = errors.New("either answerText or answerData must be provided")
	ErrSubmissionExists         = errors.New("submission already exists for this exam")
	ErrSubmissionNotFound       = errors.New("submission not found")
	ErrSubmissionNotSubmitted   = errors.New("submission has not been submitted yet")
	ErrSubmissionAlreadyGraded  = errors.New("submission already graded")
	ErrSubmissionClosed         = errors.New("submission is no longer in progress")
	ErrMissingGradingCredential = errors.New("grading backend credential missing")
	ErrUnknownGradingBackend    = errors.New("unknown grading backend")
)
