package chat

import "codeberg.org/chatgate/server/internal/sessions"

// a prior turn supplied by the client
type HistoryMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// body of both chat endpoints
type Request struct {
	Message string           `json:"message" binding:"required,max=16000"`
	UserID  string           `json:"user_id,omitempty" binding:"max=128"`
	History []HistoryMessage `json:"history,omitempty" binding:"omitempty,dive"`
}

// body of the non-streaming reply
type Response struct {
	Response string `json:"response"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Model   string `json:"model"`
}

func toTurns(history []HistoryMessage) []sessions.Turn {
	turns := make([]sessions.Turn, 0, len(history))

	for _, h := range history {
		turns = append(turns, sessions.Turn{
			Role:    sessions.Role(h.Role),
			Content: h.Content,
		})
	}

	return turns
}
