package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runs a socket that answers every chat message with reply
func newChatSocket(t *testing.T, reply func(conn *websocket.Conn, msg wsMessage)) (*httptest.Server, <-chan string) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	users := make(chan string, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/ws", r.URL.Path)
		users <- r.URL.Query().Get("user_id")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			reply(conn, msg)
		}
	}))

	return srv, users
}

func TestWSClientStream(t *testing.T) {
	srv, users := newChatSocket(t, func(conn *websocket.Conn, msg wsMessage) {
		if msg.Type != "chat" {
			return
		}
		_ = conn.WriteJSON(wsMessage{Type: "chunk", Content: "echo: "})
		_ = conn.WriteJSON(wsMessage{Type: "chunk", Content: msg.Message})
		_ = conn.WriteJSON(wsMessage{Type: "done"})
	})
	defer srv.Close()

	client := NewWSClient(srv.URL, "bob")
	defer client.Close()

	events, err := client.Stream(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "bob", <-users)

	assert.Equal(t, []StreamEvent{{Text: "echo: "}, {Text: "hi"}, {Done: true}}, drain(t, events))

	// the same connection serves the next turn
	events, err = client.Stream(context.Background(), "again")
	require.NoError(t, err)
	assert.Len(t, drain(t, events), 3)
	assert.True(t, client.IsConnected())
}

func TestWSClientServerError(t *testing.T) {
	srv, _ := newChatSocket(t, func(conn *websocket.Conn, _ wsMessage) {
		_ = conn.WriteJSON(wsMessage{Type: "error", Error: "upstream unavailable"})
	})
	defer srv.Close()

	client := NewWSClient(srv.URL, "")
	defer client.Close()

	events, err := client.Stream(context.Background(), "hi")
	require.NoError(t, err)

	got := drain(t, events)
	require.Len(t, got, 1)
	require.Error(t, got[0].Err)
	assert.Equal(t, "upstream unavailable", got[0].Err.Error())
}

func TestWSClientOneTurnAtATime(t *testing.T) {
	srv, _ := newChatSocket(t, func(*websocket.Conn, wsMessage) {})
	defer srv.Close()

	client := NewWSClient(srv.URL, "")
	defer client.Close()

	_, err := client.Stream(context.Background(), "first")
	require.NoError(t, err)

	_, err = client.Stream(context.Background(), "second")
	assert.ErrorIs(t, err, ErrReplyPending)
}

func TestWSClientCancelClosesSocket(t *testing.T) {
	srv, _ := newChatSocket(t, func(conn *websocket.Conn, _ wsMessage) {
		_ = conn.WriteJSON(wsMessage{Type: "chunk", Content: "slow"})
	})
	defer srv.Close()

	client := NewWSClient(srv.URL, "")

	ctx, cancel := context.WithCancel(context.Background())
	events, err := client.Stream(ctx, "hi")
	require.NoError(t, err)

	assert.Equal(t, "slow", (<-events).Text)

	cancel()

	assert.Eventually(t, func() bool { return !client.IsConnected() }, 2*time.Second, 10*time.Millisecond)
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		endpoint string
		userID   string
		want     string
	}{
		{"http://localhost:8000", "", "ws://localhost:8000/api/chat/ws"},
		{"https://chat.example.com/", "a b", "wss://chat.example.com/api/chat/ws?user_id=a+b"},
	}

	for _, tt := range tests {
		got, err := NewWSClient(tt.endpoint, tt.userID).socketURL()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
