package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/chatgate/server/internal/chat"
	ws "codeberg.org/chatgate/server/internal/websocket"
)

func RegisterRoutes(router *gin.RouterGroup, hub *ws.Hub, controller *chat.Controller, checkOrigin func(*http.Request) bool) {
	router.GET("/chat/ws", WebSocketHandler(hub, controller, checkOrigin))
}
