package router

import (
	"github.com/gin-gonic/gin"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/http/handler"
	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/http/middleware"
)

type RouterConfig struct {
	APIKey string
}

func SetupRoutes(router *gin.Engine, evaluations *handler.EvaluationHandler, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireAPIKey(cfg.APIKey))
	{
		EvaluationRouter(v1.Group("/evaluations"), evaluations)
	}
}
