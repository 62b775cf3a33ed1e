package service

import (
	"assessment_engine/internal/config"
	"assessment_engine/internal/grading"
	"assessment_engine/internal/model"
	"assessment_engine/internal/repository"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatal(err)
	}
	return db
}

// seedExam creates a three-question exam: true/false (1 pt), multiple
// choice (2 pts), short answer (5 pts), in that question order.
func seedExam(t *testing.T, db *gorm.DB) *model.Exam {
	t.Helper()
	exam := &model.Exam{
		Title: "Planets",
		Questions: []model.Question{
			{QuestionType: "true_false", QuestionText: "Pluto is a planet.", Order: 1, Points: 1,
				ExpectedAnswer: datatypes.JSONMap{"answer": false}},
			{QuestionType: "multiple_choice", QuestionText: "Hottest planet?", Order: 2, Points: 2,
				ExpectedAnswer: datatypes.JSONMap{"answer": "B"},
				Options:        datatypes.JSONMap{"choices": []interface{}{"A. Mercury", "B. Venus"}}},
			{QuestionType: "short_answer", QuestionText: "Why is Venus hot?", Order: 3, Points: 5,
				ExpectedAnswer: datatypes.JSONMap{"answer": "thick carbon dioxide atmosphere traps heat"}},
		},
	}
	if err := repository.NewExamRepository(db).Create(exam); err != nil {
		t.Fatal(err)
	}
	return exam
}

func answersFor(exam *model.Exam) []AnswerReq {
	return []AnswerReq{
		{QuestionID: exam.Questions[0].ID, AnswerText: "False"},
		{QuestionID: exam.Questions[1].ID, AnswerData: map[string]interface{}{"selected": "b"}},
		{QuestionID: exam.Questions[2].ID, AnswerText: "Its carbon dioxide atmosphere traps heat."},
	}
}

func newService(t *testing.T, db *gorm.DB, b grading.Backend, cfg config.GradingConfig, cache GradeCache) *GradingService {
	t.Helper()
	return NewGradingService(
		repository.NewSubmissionRepository(db),
		repository.NewExamRepository(db),
		b, cfg, cache, nil,
	)
}

// fakeBackend awards full points and echoes the answer text in the
// feedback message. It counts calls and peak concurrency.
type fakeBackend struct {
	name  string
	delay time.Duration
	fail  bool

	calls       atomic.Int32
	inflight    atomic.Int32
	maxInflight atomic.Int32
	closed      chan struct{}
	closeOnce   sync.Once
}

func newFakeBackend(name string) *fakeBackend {
	return &fakeBackend{name: name, closed: make(chan struct{})}
}

func (f *fakeBackend) Name() string  { return f.name }
func (f *fakeBackend) Model() string { return "fake-1" }

func (f *fakeBackend) GradeAnswer(ctx context.Context, q grading.Question, text string) grading.GradeResult {
	f.calls.Add(1)
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		m := f.maxInflight.Load()
		if n <= m || f.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return f.failed(q, ctx.Err())
		}
	}
	if f.fail {
		return f.failed(q, fmt.Errorf("boom"))
	}
	pts := float64(q.Points)
	return grading.GradeResult{
		Score:       pts,
		MaxScore:    pts,
		Correctness: 100,
		Feedback:    grading.Feedback{Message: "ok:" + text, Correctness: 100},
	}
}

func (f *fakeBackend) failed(q grading.Question, err error) grading.GradeResult {
	return grading.GradeResult{
		MaxScore: float64(q.Points),
		Feedback: grading.Feedback{Message: "Error during fake grading: " + err.Error(), Error: err.Error()},
	}
}

func (f *fakeBackend) GradeSubmission(ctx context.Context, answers []grading.Answer) grading.SubmissionGradeResult {
	return grading.GradeSubmission(ctx, f, answers)
}

func (f *fakeBackend) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

type memCache struct {
	mu   sync.Mutex
	m    map[string]grading.GradeResult
	sets int
}

func newMemCache() *memCache { return &memCache{m: map[string]grading.GradeResult{}} }

func (c *memCache) Get(_ context.Context, key string) (*grading.GradeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.m[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (c *memCache) Set(_ context.Context, key string, res grading.GradeResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = res
	c.sets++
	return nil
}
