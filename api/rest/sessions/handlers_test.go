package sessions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/chatgate/server/internal/sessions"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *sessions.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	commit := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	store := sessions.NewStore().WithClock(func() time.Time { return commit })

	require.NoError(t, store.AppendTurns("alice", []sessions.Turn{
		{Role: sessions.RoleUser, Content: "hi"},
		{Role: sessions.RoleAssistant, Content: "Hello"},
	}))

	router := gin.New()
	RegisterRoutes(router.Group("/api"), store)

	return router, store
}

func do(router http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestGetSession(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/api/sessions/alice")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.UserID)
	require.Len(t, resp.Turns, 2)
	assert.Equal(t, "Hello", resp.Turns[1].Content)
	assert.Equal(t, "2026-04-01T09:30:00Z", resp.LastActivity)
}

func TestGetSessionNotFound(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/api/sessions/nobody")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "session_not_found")
}

func TestGetSessionRejectsOverlongID(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/api/sessions/"+strings.Repeat("x", 200))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSession(t *testing.T) {
	router, store := setupRouter(t)

	w := do(router, http.MethodDelete, "/api/sessions/alice")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.GetHistory("alice"))

	w = do(router, http.MethodDelete, "/api/sessions/alice")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
