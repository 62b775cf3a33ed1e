package app

import (
	"assessment_engine/internal/config"
	"assessment_engine/internal/controller"
	"assessment_engine/internal/repository"
	"assessment_engine/internal/service"
	"assessment_engine/pkg/configwatcher"
	"assessment_engine/pkg/database"
	"assessment_engine/pkg/logger"
	"assessment_engine/pkg/monitoring"
	"assessment_engine/pkg/security"
	"assessment_engine/pkg/tracing"
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Grading         *service.GradingService
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	submission *repository.SubmissionRepository
	exam       *repository.ExamRepository
	gradeCache *repository.GradeCacheRepository
}

type controllers struct {
	grading *controller.GradingController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	repos := &repositories{
		submission: repository.NewSubmissionRepository(db),
		exam:       repository.NewExamRepository(db),
	}
	if rdb != nil && cfg.Grading.CacheTTL > 0 {
		repos.gradeCache = repository.NewGradeCacheRepository(rdb, cfg.Grading.CacheTTL)
	}
	return repos
}

func (a *App) initGrading(repos *repositories, cfg *config.Config) (*service.GradingService, error) {
	backend, err := service.NewGradingBackend(cfg.Grading)
	if err != nil {
		return nil, err
	}

	var cache service.GradeCache
	if repos.gradeCache != nil {
		cache = repos.gradeCache
	}
	svc := service.NewGradingService(repos.submission, repos.exam, backend, cfg.Grading, cache, logger.Log.Named("grading"))

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		// 校验失败时保留当前评分后端
		_ = svc.Reload(newCfg.Grading)
	})
	return svc, nil
}

func (a *App) initControllers(db *gorm.DB, rdb *redis.Client, svc *service.GradingService) *controllers {
	return &controllers{
		grading: controller.NewGradingController(svc),
		health:  controller.NewHealthController(db, rdb, svc),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.RequestID())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// build wires repositories, services and routes on top of ready connections.
func build(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*App, error) {
	app := &App{
		Config:    cfg,
		ConfigDir: "configs",
		DB:        db,
		Redis:     rdb,
	}

	repos := app.initRepositories(db, rdb, cfg)
	svc, err := app.initGrading(repos, cfg)
	if err != nil {
		return nil, err
	}
	app.Grading = svc
	controllers := app.initControllers(db, rdb, svc)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)
	return app, nil
}

// NewApp connects to the database (and redis when enabled), selects the
// grading backend and builds the router. It exits on any start-up error.
// With cfg.MigrateOnly the returned App has only the database set.
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
	}

	app, err := build(cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize grading backend", zap.Error(err))
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	logger.Log.Info("Grading backend selected", zap.String("backend", app.Grading.BackendName()))
	return app
}

func (a *App) watchConfig(ctx context.Context) {
	file := filepath.Join(a.ConfigDir, "config.yaml")
	err := configwatcher.WatchConfig(ctx, file, func(newCfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(newCfg)
		}
	})
	if err != nil {
		logger.Log.Error("Config watcher stopped", zap.Error(err))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go a.watchConfig(ctx)

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Grading.Close()
	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
