package app

import (
	"assessment_engine/internal/config"
	"assessment_engine/internal/model"
	"assessment_engine/internal/util"
	"assessment_engine/pkg/security"
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Mode: gin.TestMode},
		Grading:   config.GradingConfig{Service: "local", Workers: 1, PassingScore: 60},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, WindowMinutes: 1},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatal(err)
	}

	a, err := build(cfg, db, nil)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestBuildRejectsBadGradingConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Grading.Service = "gemini"

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := build(cfg, db, nil); !errors.Is(err, util.ErrMissingGradingCredential) {
		t.Fatalf("err = %v", err)
	}
}

func TestRoutes(t *testing.T) {
	a := newTestApp(t, testConfig())

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/api/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodPost, "/api/grading/preview", `{"questionType":"essay","expectedAnswer":{"answer":"water cycle evaporation"},"points":10,"answerText":"evaporation drives the water cycle"}`, http.StatusOK},
		{http.MethodGet, "/api/submissions/1", "", http.StatusNotFound},
		{http.MethodGet, "/api/nope", "", http.StatusNotFound},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		a.Router.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("%s %s = %d, want %d", tc.method, tc.path, w.Code, tc.want)
		}
		if w.Header().Get(security.RequestIDHeader) == "" {
			t.Errorf("%s %s: missing request id", tc.method, tc.path)
		}
	}
}

func TestMetricsExposeGrading(t *testing.T) {
	a := newTestApp(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/grading/preview",
		bytes.NewBufferString(`{"questionType":"multiple_choice","expectedAnswer":{"answer":"A"},"points":1,"answerText":"A"}`))
	req.Header.Set("Content-Type", "application/json")
	a.Router.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	if !strings.Contains(body, `grading_answers_total{backend="local",outcome="graded",question_type="multiple_choice"}`) {
		t.Fatalf("grading counter missing from /metrics")
	}
}

func TestConfigCallbackSwitchesBackend(t *testing.T) {
	a := newTestApp(t, testConfig())

	bad := testConfig()
	bad.Grading.Service = "nonsense"
	for _, cb := range a.configCallbacks {
		cb(bad)
	}
	if a.Grading.BackendName() != "local" {
		t.Fatalf("backend = %q after invalid reload", a.Grading.BackendName())
	}

	next := testConfig()
	next.Grading.Service = "openai"
	next.Grading.OpenAI.APIKey = "sk-test"
	for _, cb := range a.configCallbacks {
		cb(next)
	}
	if a.Grading.BackendName() != "openai" {
		t.Fatalf("backend = %q after reload", a.Grading.BackendName())
	}
}
