package sessions

import "codeberg.org/chatgate/server/internal/sessions"

// snapshot of one user's stored conversation
type SessionResponse struct {
	UserID       string          `json:"user_id"`
	Turns        []sessions.Turn `json:"turns"`
	LastActivity string          `json:"last_activity,omitempty"`
}

type DeleteSessionResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}
