package service

import (
	"assessment_engine/internal/config"
	"assessment_engine/internal/grading"
	"assessment_engine/internal/grading/llm"
	"assessment_engine/internal/model"
	"assessment_engine/internal/repository"
	"assessment_engine/internal/util"
	"assessment_engine/pkg/monitoring"
	"assessment_engine/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GradeCache stores remote-model grades. Get returns (nil, nil) on a miss.
type GradeCache interface {
	Get(ctx context.Context, key string) (*grading.GradeResult, error)
	Set(ctx context.Context, key string, res grading.GradeResult) error
}

// activeBackend is a backend plus the settings it was built from. In-flight
// grading holds a reference so Reload can close the old backend once idle.
type activeBackend struct {
	grading.Backend
	cfg      config.GradingConfig
	model    string
	remote   bool
	inflight sync.WaitGroup
}

func newActiveBackend(b grading.Backend, cfg config.GradingConfig) *activeBackend {
	ab := &activeBackend{Backend: b, cfg: cfg, remote: b.Name() != grading.LocalBackendName}
	if m, ok := b.(interface{ Model() string }); ok {
		ab.model = m.Model()
	}
	return ab
}

func (b *activeBackend) closeWhenIdle() {
	c, ok := b.Backend.(io.Closer)
	if !ok {
		return
	}
	go func() {
		b.inflight.Wait()
		_ = c.Close()
	}()
}

type GradingService struct {
	Repo     *repository.SubmissionRepository
	ExamRepo *repository.ExamRepository
	cache    GradeCache
	log      *zap.Logger

	mu      sync.RWMutex
	backend *activeBackend
}

// NewGradingService grades with backend, configured by cfg. cache may be nil.
func NewGradingService(
	repo *repository.SubmissionRepository,
	examRepo *repository.ExamRepository,
	backend grading.Backend,
	cfg config.GradingConfig,
	cache GradeCache,
	log *zap.Logger,
) *GradingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GradingService{
		Repo:     repo,
		ExamRepo: examRepo,
		cache:    cache,
		log:      log,
		backend:  newActiveBackend(backend, cfg),
	}
}

func (s *GradingService) acquire() *activeBackend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.backend
	b.inflight.Add(1)
	return b
}

func (s *GradingService) BackendName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend.Name()
}

// Reload switches to the backend described by cfg. On error the current
// backend stays active.
func (s *GradingService) Reload(cfg config.GradingConfig) error {
	b, err := NewGradingBackend(cfg)
	if err != nil {
		s.log.Error("grading backend reload rejected, keeping current backend",
			zap.String("service", cfg.Service), zap.Error(err))
		return err
	}

	s.mu.Lock()
	old := s.backend
	s.backend = newActiveBackend(b, cfg)
	s.mu.Unlock()

	old.closeWhenIdle()
	s.log.Info("grading backend reloaded", zap.String("from", old.Name()), zap.String("to", b.Name()))
	return nil
}

// Close releases the active backend once in-flight grading finishes.
func (s *GradingService) Close() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.backend.closeWhenIdle()
}

type AnswerReq struct {
	QuestionID uint                   `json:"questionId" binding:"required"`
	AnswerText string                 `json:"answerText"`
	AnswerData map[string]interface{} `json:"answerData"`
}

type CreateSubmissionReq struct {
	UserID   uint                   `json:"userId" binding:"required"`
	ExamID   uint                   `json:"examId" binding:"required"`
	Answers  []AnswerReq            `json:"answers" binding:"required,dive"`
	Metadata map[string]interface{} `json:"metadata"`
}

// CreateSubmission stores a completed submission and grades it. Every
// question of the exam must be answered exactly once. When grading cannot
// be persisted the submission is kept as submitted.
func (s *GradingService) CreateSubmission(ctx context.Context, req CreateSubmissionReq) (*model.Submission, error) {
	exists, err := s.Repo.ExistsForUserExam(req.UserID, req.ExamID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrSubmissionExists
	}

	exam, err := s.ExamRepo.FindByID(req.ExamID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrExamNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(req.Answers) == 0 {
		return nil, util.ErrNoAnswers
	}

	inExam := make(map[uint]bool, len(exam.Questions))
	for _, q := range exam.Questions {
		inExam[q.ID] = true
	}
	seen := make(map[uint]bool, len(req.Answers))
	answers := make([]model.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		if !inExam[a.QuestionID] {
			return nil, fmt.Errorf("%w: question %d", util.ErrQuestionNotInExam, a.QuestionID)
		}
		if seen[a.QuestionID] {
			return nil, fmt.Errorf("%w: question %d", util.ErrDuplicateAnswer, a.QuestionID)
		}
		if a.AnswerText == "" && len(a.AnswerData) == 0 {
			return nil, fmt.Errorf("%w: question %d", util.ErrEmptyAnswer, a.QuestionID)
		}
		seen[a.QuestionID] = true
		answers = append(answers, model.Answer{
			QuestionID: a.QuestionID,
			AnswerText: a.AnswerText,
			AnswerData: datatypes.JSONMap(a.AnswerData),
		})
	}

	for _, q := range exam.Questions {
		if !seen[q.ID] {
			return nil, fmt.Errorf("%w: question %d is missing", util.ErrUnansweredQuestion, q.ID)
		}
	}

	now := time.Now()
	submission := &model.Submission{
		UserID:      req.UserID,
		ExamID:      req.ExamID,
		MaxScore:    float64(exam.TotalPoints()),
		Status:      model.SubmissionStatusSubmitted,
		SubmittedAt: &now,
		Metadata:    datatypes.JSONMap(req.Metadata),
		Answers:     answers,
	}
	if err := s.Repo.Create(submission); err != nil {
		return nil, err
	}

	graded, err := s.GradeSubmission(ctx, submission.ID)
	if err != nil {
		s.log.Error("grading new submission failed, left as submitted",
			zap.Uint("submission_id", submission.ID), zap.Error(err))
		return s.Repo.FindByID(submission.ID)
	}
	return graded, nil
}

// Submit closes an in-progress submission and grades it.
func (s *GradingService) Submit(ctx context.Context, id uint) (*model.Submission, error) {
	if _, err := s.Repo.FindByID(id); err != nil {
		return nil, err
	}
	if err := s.Repo.MarkSubmitted(id, time.Now()); err != nil {
		return nil, err
	}
	return s.GradeSubmission(ctx, id)
}

func (s *GradingService) GetSubmission(id uint) (*model.Submission, error) {
	return s.Repo.FindByID(id)
}

// GradeSubmission grades a submitted, not yet graded submission.
func (s *GradingService) GradeSubmission(ctx context.Context, id uint) (*model.Submission, error) {
	submission, err := s.Repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	switch submission.Status {
	case model.SubmissionStatusInProgress:
		return nil, util.ErrSubmissionNotSubmitted
	case model.SubmissionStatusGraded:
		return nil, util.ErrSubmissionAlreadyGraded
	}
	return s.grade(ctx, submission)
}

// Regrade grades a submission again with the active backend, replacing
// the previous scores and feedback.
func (s *GradingService) Regrade(ctx context.Context, id uint) (*model.Submission, error) {
	submission, err := s.Repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if submission.Status == model.SubmissionStatusInProgress {
		return nil, util.ErrSubmissionNotSubmitted
	}
	return s.grade(ctx, submission)
}

// PreviewAnswer grades one ad-hoc answer without storing anything.
func (s *GradingService) PreviewAnswer(ctx context.Context, q grading.Question, studentAnswer string) grading.GradeResult {
	b := s.acquire()
	defer b.inflight.Done()
	return s.gradeOne(ctx, b, q, studentAnswer)
}

func (s *GradingService) grade(ctx context.Context, submission *model.Submission) (*model.Submission, error) {
	b := s.acquire()
	defer b.inflight.Done()

	ctx, span := tracing.Tracer.Start(ctx, "grading.GradeSubmission")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("submission.id", int64(submission.ID)),
		attribute.String("grading.backend", b.Name()),
		attribute.Int("grading.answers", len(submission.Answers)),
	)

	start := time.Now()
	answers := make([]grading.Answer, len(submission.Answers))
	for i := range submission.Answers {
		answers[i] = submission.Answers[i].ToGrading()
	}
	result := s.gradeAnswers(ctx, b, answers)

	failed := 0
	for i, ga := range result.GradedAnswers {
		submission.Answers[i].ApplyGrade(ga)
		if ga.Feedback.Error != "" {
			failed++
		}
	}
	now := time.Now()
	submission.TotalScore = result.TotalScore
	submission.MaxScore = result.MaxScore
	submission.Status = model.SubmissionStatusGraded
	submission.GradedAt = &now
	submission.GradedBy = b.Name()

	if err := s.Repo.SaveGrades(submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save grades")
		return nil, fmt.Errorf("save grades: %w", err)
	}

	monitoring.ObserveSubmission(b.Name(), result.TotalScore, result.MaxScore)
	s.log.Info("graded submission",
		zap.Uint("submission_id", submission.ID),
		zap.String("backend", b.Name()),
		zap.Int("answers", len(answers)),
		zap.Int("failed_answers", failed),
		zap.Float64("total_score", result.TotalScore),
		zap.Float64("max_score", result.MaxScore),
		zap.Duration("took", time.Since(start)),
	)
	return submission, nil
}

// gradeAnswers grades sequentially, or with up to cfg.Workers answers in
// flight. Results keep answer order either way.
func (s *GradingService) gradeAnswers(ctx context.Context, b *activeBackend, answers []grading.Answer) grading.SubmissionGradeResult {
	if b.cfg.Workers <= 1 || len(answers) <= 1 {
		return grading.GradeSubmission(ctx, graderFunc(func(ctx context.Context, q grading.Question, text string) grading.GradeResult {
			return s.gradeOne(ctx, b, q, text)
		}), answers)
	}

	results := make([]grading.GradeResult, len(answers))
	var g errgroup.Group
	g.SetLimit(b.cfg.Workers)
	for i, a := range answers {
		g.Go(func() error {
			results[i] = s.gradeOne(ctx, b, a.Question, a.EffectiveText())
			return nil
		})
	}
	_ = g.Wait()
	return grading.Summarize(answers, results)
}

type graderFunc func(ctx context.Context, q grading.Question, studentAnswer string) grading.GradeResult

func (f graderFunc) GradeAnswer(ctx context.Context, q grading.Question, studentAnswer string) grading.GradeResult {
	return f(ctx, q, studentAnswer)
}

func (s *GradingService) gradeOne(ctx context.Context, b *activeBackend, q grading.Question, text string) grading.GradeResult {
	start := time.Now()
	outcome := "graded"
	defer func() {
		monitoring.ObserveAnswer(b.Name(), string(q.Type), outcome, time.Since(start))
	}()

	var key string
	if b.remote && s.cache != nil && b.cfg.CacheTTL > 0 {
		key = repository.GradeCacheKey(b.Name(), b.model, q, text)
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn("grade cache read failed", zap.Error(err))
		} else if cached != nil {
			outcome = "cached"
			return *cached
		}
	}

	gctx := ctx
	if b.remote && b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		gctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}
	res := b.GradeAnswer(gctx, q, text)

	if llm.IsFailed(res) {
		outcome = "failed"
		s.log.Warn("answer grading failed",
			zap.String("backend", b.Name()),
			zap.Uint("question_id", q.ID),
			zap.String("error", res.Feedback.Error),
		)
		return res
	}
	if key != "" {
		if err := s.cache.Set(ctx, key, res); err != nil {
			s.log.Warn("grade cache write failed", zap.Error(err))
		}
	}
	return res
}

type SubmissionStats struct {
	SubmissionID    uint       `json:"submissionId"`
	ExamTitle       string     `json:"examTitle"`
	TotalScore      float64    `json:"totalScore"`
	MaxScore        float64    `json:"maxScore"`
	PercentageScore float64    `json:"percentageScore"`
	IsPassed        bool       `json:"isPassed"`
	Status          string     `json:"status"`
	SubmittedAt     *time.Time `json:"submittedAt"`
	GradedAt        *time.Time `json:"gradedAt"`
	TotalQuestions  int        `json:"totalQuestions"`
	CorrectAnswers  int        `json:"correctAnswers"`
}

// Stats summarises a submission. An answer counts as correct at 90% of its
// points or more.
func (s *GradingService) Stats(id uint) (*SubmissionStats, error) {
	submission, err := s.Repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	passing := s.backend.cfg.PassingScore
	s.mu.RUnlock()

	stats := &SubmissionStats{
		SubmissionID:    submission.ID,
		TotalScore:      submission.TotalScore,
		MaxScore:        submission.MaxScore,
		PercentageScore: grading.Round2(submission.PercentageScore()),
		IsPassed:        submission.IsPassed(passing),
		Status:          submission.Status,
		SubmittedAt:     submission.SubmittedAt,
		GradedAt:        submission.GradedAt,
		TotalQuestions:  len(submission.Answers),
	}
	if submission.Exam != nil {
		stats.ExamTitle = submission.Exam.Title
	}
	for _, a := range submission.Answers {
		if a.MaxScore > 0 && a.Score >= 0.9*a.MaxScore {
			stats.CorrectAnswers++
		}
	}
	return stats, nil
}
