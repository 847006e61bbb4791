package chat

import (
	stderrors "errors"
	"net/http"
	"strings"

	"codeberg.org/chatgate/server/internal/chat"
	"codeberg.org/chatgate/server/internal/errors"
	"codeberg.org/chatgate/server/internal/logger"
	"github.com/gin-gonic/gin"
)

func bindRequest(c *gin.Context) (Request, bool) {
	var req Request

	if err := c.ShouldBindJSON(&req); err != nil {
		errors.ValidationError(c, err)
		return req, false
	}

	if strings.TrimSpace(req.Message) == "" {
		errors.BadRequest(c, "message is required", nil)
		return req, false
	}

	return req, true
}

// creates a handler that answers with the full reply in one response
func CompleteHandler(controller *chat.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindRequest(c)
		if !ok {
			return
		}

		text, err := controller.Complete(c.Request.Context(), req.Message, toTurns(req.History))
		if err != nil {
			if stderrors.Is(err, chat.ErrClientDisconnected) {
				logger.FromContext(c.Request.Context()).Info("client left before reply was ready")
				c.Abort()
				return
			}

			if chat.IsProviderError(err) {
				errors.UpstreamError(c, err)
				return
			}

			errors.InternalError(c, "failed to generate reply", err)
			return
		}

		c.JSON(http.StatusOK, Response{Response: text})
	}
}

// creates a handler that relays the reply as server-sent events and records
// the exchange in the user's session
func StreamHandler(controller *chat.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindRequest(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		sink := newSSESink(c)

		res := controller.Stream(ctx, chat.Request{
			UserID:  req.UserID,
			Message: req.Message,
		}, sink)

		logger.FromContext(ctx).Debug("chat stream finished",
			"user_id", res.UserID,
			"state", res.State,
		)
	}
}

// creates a handler reporting chat service liveness
func HealthHandler(model string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Service: "chat",
			Model:   model,
		})
	}
}
