package sessions

import (
	"codeberg.org/chatgate/server/internal/sessions"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, store *sessions.Store) {
	router.GET("/sessions/:user_id", GetSessionHandler(store))
	router.DELETE("/sessions/:user_id", DeleteSessionHandler(store))
}
