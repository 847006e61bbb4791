package main

import (
	"fmt"

	"codeberg.org/chatgate/server/internal/admission"
	"codeberg.org/chatgate/server/internal/chat"
	"codeberg.org/chatgate/server/internal/config"
	"codeberg.org/chatgate/server/internal/logger"
	"codeberg.org/chatgate/server/internal/sessions"
	ws "codeberg.org/chatgate/server/internal/websocket"
	"github.com/gin-gonic/gin"
)

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	services, err := InitializeServices(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	store := sessions.NewStore()
	gate := admission.NewGate(cfg.MaxConcurrentGenerations)
	controller := chat.NewController(store, gate, services.Generator, cfg.DefaultUserID)

	// create session cleanup service (handles expiry of idle conversations)
	cleanupService := sessions.NewCleanupService(store, cfg.CleanupInterval, cfg.SessionTTL).
		OnEvict(func(userID string) {
			logger.Debug("session expired", "user_id", userID)
		})

	hub := ws.NewHub()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	server := &Server{
		config:         cfg,
		store:          store,
		gate:           gate,
		controller:     controller,
		services:       services,
		hub:            hub,
		cleanupService: cleanupService,
		router:         router,
	}

	RegisterRoutes(router, server)

	logger.Info("server initialized",
		"provider", cfg.Provider,
		"model", services.Generator.Model(),
		"max_concurrent_generations", gate.Capacity(),
		"session_ttl", cfg.SessionTTL,
		"cleanup_interval", cfg.CleanupInterval,
	)

	return server, nil
}
