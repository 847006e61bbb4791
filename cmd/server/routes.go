package main

import (
	"slices"
	"time"

	"codeberg.org/chatgate/server/api/rest/chat"
	"codeberg.org/chatgate/server/api/rest/health"
	"codeberg.org/chatgate/server/api/rest/sessions"
	"codeberg.org/chatgate/server/api/websocket"
	"codeberg.org/chatgate/server/internal/errors"
	"codeberg.org/chatgate/server/internal/logger"
	ws "codeberg.org/chatgate/server/internal/websocket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	model := server.services.Generator.Model()

	router.Use(RequestLogger())
	router.Use(CORSMiddleware(server.config.CORSOrigins))

	router.GET("/", health.InfoHandler(model))
	router.GET("/health", health.Handler)
	router.NoRoute(func(c *gin.Context) {
		errors.NotFound(c, "route")
	})

	api := router.Group("/api")

	{
		api.GET("/ping", health.PingHandler)
		api.GET("/stats", health.StatsHandler(server))

		chat.RegisterRoutes(api, server.controller, model)
		sessions.RegisterRoutes(api, server.store)
		websocket.RegisterRoutes(api, server.hub, server.controller,
			ws.NewOriginChecker(server.config.Environment, server.config.CORSOrigins))
	}
}

// allows the configured browser origins
func CORSMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	switch {
	case slices.Contains(origins, "*"):
		// credentials cannot be combined with a wildcard origin
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	case len(origins) == 0:
		cfg.AllowOriginFunc = func(string) bool { return false }
	default:
		cfg.AllowOrigins = origins
	}

	return cors.New(cfg)
}

// tags each request with an id and logs it once it finishes
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)

		reqLogger := logger.With("request_id", requestID)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLogger))

		start := time.Now()
		c.Next()

		reqLogger.Info("request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}
