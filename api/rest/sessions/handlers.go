package sessions

import (
	"net/http"
	"time"

	"codeberg.org/chatgate/server/internal/errors"
	"codeberg.org/chatgate/server/internal/logger"
	"codeberg.org/chatgate/server/internal/sessions"
	"github.com/gin-gonic/gin"
)

// creates a handler returning the stored turns of a user
func GetSessionHandler(store *sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := errors.ValidatePathUserID(c, "user_id")
		if !ok {
			return
		}

		last, exists := store.LastActivity(userID)
		if !exists {
			errors.SessionNotFound(c)
			return
		}

		c.JSON(http.StatusOK, SessionResponse{
			UserID:       userID,
			Turns:        store.GetHistory(userID),
			LastActivity: last.UTC().Format(time.RFC3339Nano),
		})
	}
}

// creates a handler that forgets a user's conversation
func DeleteSessionHandler(store *sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := errors.ValidatePathUserID(c, "user_id")
		if !ok {
			return
		}

		if _, exists := store.LastActivity(userID); !exists {
			errors.SessionNotFound(c)
			return
		}

		store.Evict(userID)

		logger.FromContext(c.Request.Context()).Info("session reset", "user_id", userID)

		c.JSON(http.StatusOK, DeleteSessionResponse{
			Message: "session deleted",
			UserID:  userID,
		})
	}
}
