package router

import (
	"github.com/gin-gonic/gin"

	"github.com/mohamedsahadm786/agentic-supplier-risk-ai/internal/http/handler"
)

func EvaluationRouter(rg *gin.RouterGroup, h *handler.EvaluationHandler) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}
