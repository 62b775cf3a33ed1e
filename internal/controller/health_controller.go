package controller

import (
	"assessment_engine/internal/service"
	"assessment_engine/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Grading *service.GradingService
}

// rdb may be nil when the result cache is disabled.
func NewHealthController(db *gorm.DB, rdb *redis.Client, grading *service.GradingService) *HealthController {
	return &HealthController{DB: db, Redis: rdb, Grading: grading}
}

// HealthCheck GET /health
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	if err := sqlDB.PingContext(ctx.Request.Context()); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	components := gin.H{"database": "up"}
	if c.Redis != nil {
		// redis only backs the result cache; report it without failing the check
		if err := c.Redis.Ping(ctx.Request.Context()).Err(); err != nil {
			components["redis"] = "down"
		} else {
			components["redis"] = "up"
		}
	}

	util.Success(ctx, gin.H{
		"status":          "ok",
		"grading_backend": c.Grading.BackendName(),
		"components":      components,
	})
}
