package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"codeberg.org/chatgate/server/internal/logger"
	"github.com/gorilla/websocket"
)

// creates a new webSocket client connection. the client context derives
// from parent and ends when the peer disconnects.
func NewClient(parent context.Context, id, userID, ipAddress string, conn *websocket.Conn, hub *Hub) *Client {
	ctx, cancel := context.WithCancel(parent)

	return &Client{
		ID:        id,
		UserID:    userID,
		IPAddress: ipAddress,
		conn:      conn,
		hub:       hub,
		send:      make(chan []byte, sendBufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// the context in-flight requests of this client run under
func (c *Client) Context() context.Context {
	return c.ctx
}

// reads messages from the webSocket connection and dispatches chat turns to
// handle. returns once the peer goes away.
func (c *Client) ReadPump(handle ChatHandler) {
	defer func() {
		c.cancel()
		c.hub.unregister(c)
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: websocket setup
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: pong handler
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket error",
					"client_id", c.ID,
					"user_id", c.UserID,
					"error", err,
				)
			}

			break
		}

		// any traffic counts as liveness
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: websocket timing

		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.SendError(ErrInvalidMessage.Error())
			continue
		}

		switch msg.Type {
		case TypePing:
			c.Send(&Message{Type: TypePong}) //nolint:errcheck,gosec // G104: best effort

		case TypeChat:
			c.dispatch(handle, msg.Message)

		default:
			logger.Warn("unhandled message type received",
				"message_type", msg.Type,
				"client_id", c.ID,
			)
			c.SendError("unsupported message type")
		}
	}
}

// runs one chat turn; a client answers one turn at a time so fragments of
// two replies never interleave on the socket
func (c *Client) dispatch(handle ChatHandler, message string) {
	if strings.TrimSpace(message) == "" {
		c.SendError("message is required")
		return
	}

	if utf8.RuneCountInString(message) > maxChatMessageSize {
		c.SendError(ErrMessageTooLarge.Error())
		return
	}

	if !c.begin() {
		c.SendError(ErrBusy.Error())
		return
	}

	go func() {
		defer c.end()
		handle(c.ctx, c, message)
	}()
}

func (c *Client) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy || c.closed {
		return false
	}

	c.busy = true
	return true
}

func (c *Client) end() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// writes queued messages to the webSocket connection and keeps it alive
// with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket timing

			if !ok {
				// client closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck,gosec // G104: close message
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.cancel()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket ping timing

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.cancel()
				return
			}
		}
	}
}

// queues a message for the client
func (c *Client) Send(msg *Message) (err error) {
	// recover from panic if channel is closed
	defer func() {
		if r := recover(); r != nil {
			err = ErrConnectionClosed
		}
	}()

	messageBytes, marshalErr := json.Marshal(msg)
	if marshalErr != nil {
		return marshalErr
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.send <- messageBytes:
		return nil
	default:
		// a peer this far behind is treated as gone
		go c.Close()
		return ErrConnectionClosed
	}
}

// queues a generated fragment
func (c *Client) SendChunk(text string) error {
	return c.Send(&Message{Type: TypeChunk, Content: text})
}

// queues the completion marker
func (c *Client) SendDone() error {
	return c.Send(&Message{Type: TypeDone})
}

// queues an error event
func (c *Client) SendError(message string) error {
	err := c.Send(&Message{Type: TypeError, Error: message})
	if err != nil {
		logger.Debug("failed to send error message",
			"client_id", c.ID,
			"error", err,
		)
	}
	return err
}

// closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		c.cancel()
		close(c.send)
	}
}

// checks if the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.closed
}
