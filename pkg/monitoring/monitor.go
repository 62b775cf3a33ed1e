package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// outcome: graded | failed | cached
	GradedAnswers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grading_answers_total",
			Help: "Answers graded, by backend, question type and outcome",
		},
		[]string{"backend", "question_type", "outcome"},
	)

	AnswerGradingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grading_answer_duration_seconds",
			Help:    "Time spent grading a single answer",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"backend"},
	)

	SubmissionScoreRatio = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grading_submission_score_ratio",
			Help:    "Submission total_score / max_score",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"backend"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(GradedAnswers)
		prometheus.MustRegister(AnswerGradingDuration)
		prometheus.MustRegister(SubmissionScoreRatio)
	})
}

func ObserveAnswer(backend, questionType, outcome string, took time.Duration) {
	GradedAnswers.WithLabelValues(backend, questionType, outcome).Inc()
	AnswerGradingDuration.WithLabelValues(backend).Observe(took.Seconds())
}

func ObserveSubmission(backend string, total, max float64) {
	if max <= 0 {
		return
	}
	SubmissionScoreRatio.WithLabelValues(backend).Observe(total / max)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
