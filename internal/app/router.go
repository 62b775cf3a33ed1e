package app

import (
	"assessment_engine/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)
		api.POST("/grading/preview", c.grading.Preview)

		submissions := api.Group("/submissions")
		{
			submissions.POST("", c.grading.CreateSubmission)
			submissions.GET("/:id", c.grading.GetSubmission)
			submissions.GET("/:id/stats", c.grading.Stats)
			submissions.POST("/:id/submit", c.grading.Submit)
			submissions.POST("/:id/grade", c.grading.Grade)
			submissions.POST("/:id/regrade", c.grading.Regrade)
		}
	}
}
