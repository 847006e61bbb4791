package websocket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/chatgate/server/internal/chat"
	"codeberg.org/chatgate/server/internal/errors"
	"codeberg.org/chatgate/server/internal/logger"
	ws "codeberg.org/chatgate/server/internal/websocket"
)

// handles websocket chat connections: every chat message is answered with
// chunk events followed by done, or a single error event.
func WebSocketHandler(hub *ws.Hub, controller *chat.Controller, checkOrigin func(*http.Request) bool) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	return func(c *gin.Context) {
		var params ConnectParams
		if err := c.ShouldBindQuery(&params); err != nil {
			errors.BadRequest(c, "invalid parameters", err)
			return
		}

		ipAddress := c.ClientIP()

		// check connection limits before accepting new connection
		if canAccept, reason := hub.CanAcceptConnection(ipAddress); !canAccept {
			errors.TooManyRequests(c, reason)
			return
		}

		userID := controller.ResolveUserID(params.UserID)

		// upgrade HTTP connection to WebSocket
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.ErrorErr(err, "failed to upgrade connection",
				"user_id", userID,
				"ip", ipAddress,
			)
			return
		}

		// the request context ends when the handler returns after a hijack,
		// so the client context keeps only its values
		base := context.WithoutCancel(c.Request.Context())
		client := ws.NewClient(base, ws.GenerateClientID(), userID, ipAddress, conn, hub)

		if !hub.Add(client) {
			client.Close()
			conn.Close() //nolint:errcheck,gosec // G104: cleanup
			return
		}

		log := logger.FromContext(base).With("client_id", client.ID, "user_id", userID)
		log.Info("websocket client connected", "ip", ipAddress)

		go client.WritePump()
		go client.ReadPump(func(ctx context.Context, cl *ws.Client, message string) {
			res := controller.Stream(ctx, chat.Request{
				UserID:  cl.UserID,
				Message: message,
			}, clientSink{client: cl})

			log.Debug("websocket chat turn finished", "state", res.State)
		})
	}
}
