package tui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrReplyPending = errors.New("a reply is still streaming")
)

// creates a new websocket client; endpoint is the server's http base url
func NewWSClient(endpoint, userID string) *WSClient {
	return &WSClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		userID:   userID,
	}
}

// builds the ws:// or wss:// address of the chat socket
func (c *WSClient) socketURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/api/chat/ws"

	if c.userID != "" {
		q := u.Query()
		q.Set("user_id", c.userID)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// establishes the connection unless one is already open
func (c *WSClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	target, err := c.socketURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

	c.conn = conn
	c.connected = true

	go c.readPump(conn)
	go c.pingPump(conn)

	return nil
}

// sends a chat message and returns the events of its reply
func (c *WSClient) Stream(ctx context.Context, message string) (<-chan StreamEvent, error) {
	if err := c.Connect(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, ErrNotConnected
	}

	if c.current != nil {
		return nil, ErrReplyPending
	}

	conn := c.conn

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(wsMessage{Type: "chat", Message: message}); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	pending := &pendingStream{
		ctx:    ctx,
		events: make(chan StreamEvent, 64),
	}

	// the server stops generating when the socket goes away
	pending.stop = context.AfterFunc(ctx, func() {
		c.mu.Lock()
		abandoned := c.current == pending
		c.mu.Unlock()

		if abandoned {
			c.Close()
		}
	})

	c.current = pending

	return pending.events, nil
}

// sends periodic pings to keep the connection alive
func (c *WSClient) pingPump(conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()

		if !c.connected || c.conn != conn {
			c.mu.Unlock()
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		err := conn.WriteMessage(websocket.PingMessage, nil)
		c.mu.Unlock()

		if err != nil {
			return
		}
	}
}

// routes server messages to the pending stream
func (c *WSClient) readPump(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.connected = false
			c.conn = nil
		}
		c.mu.Unlock()

		conn.Close()
		c.finish(StreamEvent{Err: ErrNotConnected})
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		switch msg.Type {
		case "chunk":
			c.deliver(StreamEvent{Text: msg.Content})

		case "done":
			c.finish(StreamEvent{Done: true})

		case "error":
			c.finish(StreamEvent{Err: errors.New(firstNonEmpty(msg.Error, msg.Message, "request failed"))})

		case "server_shutdown":
			c.finish(StreamEvent{Err: errors.New(firstNonEmpty(msg.Message, "server shutting down"))})
			return
		}
	}
}

func (c *WSClient) deliver(event StreamEvent) {
	c.mu.Lock()
	pending := c.current
	c.mu.Unlock()

	if pending == nil {
		return
	}

	select {
	case pending.events <- event:
	case <-pending.ctx.Done():
	}
}

// delivers the terminal event and frees the client for the next turn
func (c *WSClient) finish(event StreamEvent) {
	c.mu.Lock()
	pending := c.current
	c.current = nil
	c.mu.Unlock()

	if pending == nil {
		return
	}

	pending.stop()

	select {
	case pending.events <- event:
	case <-pending.ctx.Done():
	}
	close(pending.events)
}

// returns whether the client is connected
func (c *WSClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// closes the websocket connection
func (c *WSClient) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false

	if conn == nil {
		c.mu.Unlock()
		return nil
	}

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.mu.Unlock()

	return conn.Close()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
