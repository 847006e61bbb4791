package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw []byte) Message {
	t.Helper()

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestClientSendHelpers(t *testing.T) {
	client := newTestClient("c1", "", nil)

	require.NoError(t, client.SendChunk("He"))
	require.NoError(t, client.SendDone())
	require.NoError(t, client.SendError("boom"))

	assert.Equal(t, Message{Type: TypeChunk, Content: "He"}, decode(t, <-client.send))
	assert.Equal(t, Message{Type: TypeDone}, decode(t, <-client.send))
	assert.Equal(t, Message{Type: TypeError, Error: "boom"}, decode(t, <-client.send))
}

func TestClientSendAfterClose(t *testing.T) {
	client := newTestClient("c1", "", nil)

	client.Close()
	client.Close()

	assert.True(t, client.IsClosed())
	assert.ErrorIs(t, client.SendChunk("x"), ErrConnectionClosed)
	assert.ErrorIs(t, client.Context().Err(), context.Canceled)
}

func TestClientBeginIsExclusive(t *testing.T) {
	client := newTestClient("c1", "", nil)

	assert.True(t, client.begin())
	assert.False(t, client.begin())

	client.end()
	assert.True(t, client.begin())
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		allowed     []string
		origin      string
		want        bool
	}{
		{"development accepts anything", "development", nil, "http://evil.test", true},
		{"production accepts listed origin", "production", []string{"http://app.test"}, "http://app.test", true},
		{"production rejects unlisted origin", "production", []string{"http://app.test"}, "http://evil.test", false},
		{"production rejects missing origin", "production", []string{"http://app.test"}, "", false},
		{"production wildcard", "production", []string{"*"}, "http://any.test", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}

			assert.Equal(t, tt.want, NewOriginChecker(tt.environment, tt.allowed)(r))
		})
	}
}

// runs a real connection through both pumps
func TestClientPumps(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	var mu sync.Mutex
	var received []string
	handlerCtx := make(chan context.Context, 1)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}

		client := NewClient(context.Background(), GenerateClientID(), "alice", "127.0.0.1", conn, hub)
		hub.Add(client)

		go client.WritePump()
		client.ReadPump(func(ctx context.Context, c *Client, message string) {
			mu.Lock()
			received = append(received, message)
			mu.Unlock()

			c.SendChunk(strings.ToUpper(message)) //nolint:errcheck
			c.SendDone()                          //nolint:errcheck

			handlerCtx <- ctx
		})
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(Message{Type: TypePing}))
	require.NoError(t, conn.WriteJSON(Message{Type: TypeChat, Message: " "}))
	require.NoError(t, conn.WriteJSON(Message{Type: TypeChat, Message: "hi"}))

	var got []Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	for len(got) < 4 {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		got = append(got, msg)
	}

	assert.Equal(t, []Message{
		{Type: TypePong},
		{Type: TypeError, Error: "message is required"},
		{Type: TypeChunk, Content: "HI"},
		{Type: TypeDone},
	}, got)

	ctx := <-handlerCtx
	require.NoError(t, conn.Close())

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client context was not cancelled after the peer left")
	}

	mu.Lock()
	assert.Equal(t, []string{"hi"}, received)
	mu.Unlock()

	assert.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
