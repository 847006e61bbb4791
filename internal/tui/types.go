package tui

import (
	"context"
	"net/http"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/gorilla/websocket"
)

// represents the current state of the TUI
type AppState int

const (
	StateWelcome AppState = iota
	StateChat
)

// transports a chat client can speak
const (
	TransportSSE       = "sse"
	TransportWebSocket = "ws"
)

// how the client reaches the gateway
type Config struct {
	Endpoint    string // http base url of the server
	UserID      string // empty lets the server pick its default
	Transport   string
	Environment string
}

// main TUI application model
type Model struct {
	state    AppState
	config   Config
	width    int
	height   int
	welcome  *Welcome
	chat     *ChatModel
	sessions *SessionClient
}

// sent when an error occurs
type ErrorMsg struct {
	err error
}

// sent to transition to the chat state
type EnterChatMsg struct{}

// one line of the visible conversation
type ChatMessage struct {
	Role    string
	Content string
}

// chat screen
type ChatModel struct {
	input        textinput.Model
	viewport     viewport.Model
	spinner      spinner.Model
	renderer     *glamour.TermRenderer
	width        int
	height       int
	ready        bool
	conversation []ChatMessage
	streaming    bool
	streamer     Streamer
	events       <-chan StreamEvent
	cancel       context.CancelFunc
	status       string
}

// one item read off a reply stream; exactly one of the fields is set
type StreamEvent struct {
	Text string
	Done bool
	Err  error
}

// sent when a reply stream was opened
type streamOpenedMsg struct {
	events <-chan StreamEvent
	cancel context.CancelFunc
}

// sent for every event read off the open stream
type streamEventMsg struct {
	events <-chan StreamEvent
	event  StreamEvent
}

// sent when the server forgot the conversation
type SessionResetMsg struct{}

// sent with the health probe result
type HealthMsg struct {
	Status string
	Model  string
}

// welcome screen model
type Welcome struct {
	config   Config
	input    string
	status   string
	commands []Command
}

// represents an available TUI command
type Command struct {
	Name        string
	Description string
	Available   bool
}

// streams replies over POST /api/chat/stream
type SSEClient struct {
	endpoint   string
	userID     string
	httpClient *http.Client
}

// streams replies over /api/chat/ws, one turn at a time
type WSClient struct {
	endpoint string
	userID   string

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	current   *pendingStream
}

// the stream a websocket client is currently answering
type pendingStream struct {
	ctx    context.Context
	events chan StreamEvent
	stop   func() bool
}

// talks to the session and health endpoints
type SessionClient struct {
	endpoint   string
	userID     string
	httpClient *http.Client
}

// mirrors the server's websocket envelope
type wsMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// mirrors the server's error body
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
