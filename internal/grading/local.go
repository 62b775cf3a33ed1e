package grading

import "context"

const LocalBackendName = "local"

// LocalBackend grades deterministically: exact match for choice questions,
// text similarity for free text. Strategies are fixed after construction.
type LocalBackend struct {
	strategies map[QuestionType]Strategy
}

type Option func(*localConfig)

type localConfig struct {
	vectorizer *Vectorizer
	extra      map[QuestionType]Strategy
}

// WithVectorizer replaces the vectorizer used by the similarity strategies.
func WithVectorizer(v *Vectorizer) Option { return func(c *localConfig) { c.vectorizer = v } }

// WithStrategy installs s for question type t, overriding any built-in.
func WithStrategy(t QuestionType, s Strategy) Option {
	return func(c *localConfig) { c.extra[t] = s }
}

func NewLocalBackend(opts ...Option) *LocalBackend {
	cfg := &localConfig{extra: map[QuestionType]Strategy{}}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.vectorizer == nil {
		cfg.vectorizer = NewVectorizer()
	}

	strategies := map[QuestionType]Strategy{
		MultipleChoice: multipleChoiceStrategy{},
		TrueFalse:      trueFalseStrategy{},
		ShortAnswer:    ShortAnswerStrategy(cfg.vectorizer),
		Essay:          EssayStrategy(cfg.vectorizer),
	}
	for t, s := range cfg.extra {
		strategies[t] = s
	}
	return &LocalBackend{strategies: strategies}
}

func (b *LocalBackend) Name() string { return LocalBackendName }

func (b *LocalBackend) GradeAnswer(ctx context.Context, q Question, studentAnswer string) GradeResult {
	s, ok := b.strategies[q.Type]
	if !ok {
		return ZeroResult(q.Points, "Unknown question type")
	}
	return clampResult(s.Grade(ctx, q, studentAnswer))
}

func (b *LocalBackend) GradeSubmission(ctx context.Context, answers []Answer) SubmissionGradeResult {
	return GradeSubmission(ctx, b, answers)
}

// clampResult keeps 0 <= score <= max_score and 0 <= correctness <= 100 for
// whatever a strategy returned. A question worth nothing is 0% correct.
func clampResult(r GradeResult) GradeResult {
	if r.MaxScore <= 0 {
		r.MaxScore = 0
		r.Score = 0
		r.Correctness = 0
		r.Feedback.Correctness = 0
		return r
	}
	r.Score = Clamp(r.Score, 0, r.MaxScore)
	r.Correctness = Clamp(r.Correctness, 0, 100)
	r.Feedback.Correctness = Clamp(r.Feedback.Correctness, 0, 100)
	return r
}
