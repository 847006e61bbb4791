package sessions

import (
	"sync"
	"time"
)

// author of a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// one message in a conversation
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// in-memory conversation history keyed by user id
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
}

// the turn log of one user; mu serializes every mutation of turns
type session struct {
	mu      sync.Mutex
	turns   []Turn
	evicted bool
}
