package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// message type constants for websocket communication
const (
	// is sent by clients to submit a chat turn
	TypeChat = "chat"

	// is sent for every generated fragment
	TypeChunk = "chunk"

	// is sent once a reply has been generated and stored
	TypeDone = "done"

	// is sent when an error occurs
	TypeError = "error"

	// is sent by clients to keep the connection alive
	TypePing = "ping"

	// is sent by server in response to ping
	TypePong = "pong"

	// is sent by server before shutdown
	TypeServerShutdown = "server_shutdown"
)

// client connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	// maximum chat message size in characters
	maxChatMessageSize = 16000

	// outbound queue depth per client
	sendBufferSize = 256
)

// hub connection limit constants
const (
	maxConnectionsPerIP = 10
)

// errors
var (
	ErrInvalidMessage   = errors.New("invalid message format")
	ErrConnectionClosed = errors.New("connection closed")
	ErrMessageTooLarge  = errors.New("message too large")
	ErrBusy             = errors.New("a reply is already being generated")
)

// represents a websocket message. one flat shape serves every type;
// unused fields are omitted on the wire.
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"` // chat: the user turn
	Content string `json:"content,omitempty"` // chunk: generated text
	Error   string `json:"error,omitempty"`   // error: description
	Reason  string `json:"reason,omitempty"`  // server_shutdown
}

// is invoked for every chat turn a client submits. ctx is cancelled when the
// connection goes away.
type ChatHandler func(ctx context.Context, client *Client, message string)

// represents a websocket client connection
type Client struct {
	// unique identifier for this client
	ID string

	// session key the client's turns are stored under
	UserID string

	// IP address of the client (for connection tracking)
	IPAddress string

	// websocket connection
	conn *websocket.Conn

	// hub reference for registration
	hub *Hub

	// buffered channel of outbound messages
	send chan []byte

	// cancelled once the read side sees the peer go away
	ctx    context.Context
	cancel context.CancelFunc

	// mutex for thread-safe operations
	mu sync.RWMutex

	// flag indicating if client is closed
	closed bool

	// set while a chat turn is being answered
	busy bool
}

// maintains the set of active clients
type Hub struct {
	// registered clients by client ID
	clients map[string]*Client

	// register requests from clients
	Register chan *Client

	// unregister requests from clients
	Unregister chan *Client

	// mutex for thread-safe access to clients
	mu sync.RWMutex

	// flag indicating if hub is running
	running bool

	// channel to signal shutdown
	shutdown chan struct{}

	// closed once the run loop has exited
	stopped chan struct{}

	// connection tracking: IP address -> count of connections
	ipConnections map[string]int
}
