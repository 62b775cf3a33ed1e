package repository

import (
	"assessment_engine/internal/grading"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const gradeCachePrefix = "grading:result:"

// GradeCacheRepository stores remote-model grades in redis.
type GradeCacheRepository struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewGradeCacheRepository(rdb *redis.Client, ttl time.Duration) *GradeCacheRepository {
	return &GradeCacheRepository{Redis: rdb, TTL: ttl}
}

// Get returns the cached grade for key. A miss is (nil, nil).
func (r *GradeCacheRepository) Get(ctx context.Context, key string) (*grading.GradeResult, error) {
	data, err := r.Redis.Get(ctx, gradeCachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var res grading.GradeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GradeCacheRepository) Set(ctx context.Context, key string, res grading.GradeResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return r.Redis.Set(ctx, gradeCachePrefix+key, data, r.TTL).Err()
}

type gradeCacheKey struct {
	Backend  string         `json:"b"`
	Model    string         `json:"m"`
	Type     string         `json:"t"`
	Expected map[string]any `json:"e"`
	Options  map[string]any `json:"o"`
	Points   int            `json:"p"`
	Answer   string         `json:"a"`
}

// GradeCacheKey identifies one (backend, model, question, answer) grading.
func GradeCacheKey(backend, modelName string, q grading.Question, studentAnswer string) string {
	// map keys are marshalled in sorted order, so equal inputs hash equally
	data, _ := json.Marshal(gradeCacheKey{
		Backend:  backend,
		Model:    modelName,
		Type:     string(q.Type),
		Expected: q.ExpectedAnswer,
		Options:  q.Options,
		Points:   q.Points,
		Answer:   studentAnswer,
	})
	sum := sha256.Sum256(data)
	return backend + ":" + hex.EncodeToString(sum[:])
}
