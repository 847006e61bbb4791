package chat

import (
	"codeberg.org/chatgate/server/internal/chat"
	"github.com/gin-gonic/gin"
)

// registers chat routes
func RegisterRoutes(router *gin.RouterGroup, controller *chat.Controller, model string) {
	group := router.Group("/chat")

	group.POST("/", CompleteHandler(controller))
	group.POST("/stream", StreamHandler(controller))
	group.GET("/health", HealthHandler(model))
}
