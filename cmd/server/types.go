package main

import (
	"codeberg.org/chatgate/server/internal/admission"
	"codeberg.org/chatgate/server/internal/chat"
	"codeberg.org/chatgate/server/internal/config"
	"codeberg.org/chatgate/server/internal/llm"
	"codeberg.org/chatgate/server/internal/sessions"
	ws "codeberg.org/chatgate/server/internal/websocket"
	"github.com/gin-gonic/gin"
)

// holds all dependencies and state for the API server
type Server struct {
	config         *config.Config
	store          *sessions.Store
	gate           *admission.Gate
	controller     *chat.Controller
	services       *Services
	hub            *ws.Hub
	cleanupService *sessions.CleanupService
	router         *gin.Engine
}

// holds all external service clients
type Services struct {
	Generator llm.Generator
}

// counters exposed on GET /api/stats

func (s *Server) Capacity() int         { return s.gate.Capacity() }
func (s *Server) InFlight() int         { return s.gate.InFlight() }
func (s *Server) Sessions() int         { return s.store.Len() }
func (s *Server) WebSocketClients() int { return s.hub.GetClientCount() }
