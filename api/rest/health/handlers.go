package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	serviceName = "chatgate"
	version     = "1.0.0"
)

// returns the server health status
func Handler(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Status:  "healthy",
		Service: serviceName,
		Version: version,
	})
}

// responds with pong for testing
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{
		Message: "pong",
	})
}

// describes the service and its entry points
func InfoHandler(model string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, InfoResponse{
			Service: serviceName,
			Version: version,
			Model:   model,
			Routes: map[string]string{
				"chat":     "POST /api/chat/",
				"stream":   "POST /api/chat/stream",
				"ws":       "GET /api/chat/ws",
				"sessions": "GET|DELETE /api/sessions/:user_id",
				"stats":    "GET /api/stats",
				"health":   "GET /health",
			},
		})
	}
}

// the live counters behind GET /api/stats
type StatsSource interface {
	Capacity() int
	InFlight() int
	Sessions() int
	WebSocketClients() int
}

func StatsHandler(source StatsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, StatsResponse{
			Capacity:         source.Capacity(),
			InFlight:         source.InFlight(),
			Sessions:         source.Sessions(),
			WebSocketClients: source.WebSocketClients(),
		})
	}
}
