package websocket

import (
	"net/http"
	"slices"

	"codeberg.org/chatgate/server/internal/logger"
	"github.com/google/uuid"
)

// builds an origin check for the upgrader. outside production every origin
// is accepted; in production the origin must be one of allowed.
func NewOriginChecker(environment string, allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		if environment != "production" {
			return true
		}

		if origin == "" {
			logger.Warn("websocket connection with no origin header")
			return false
		}

		if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}

		logger.Warn("websocket origin rejected - not in allowed origins",
			"origin", origin,
			"allowed_origins", allowed,
		)

		return false
	}
}

func GenerateClientID() string {
	return uuid.NewString()
}
