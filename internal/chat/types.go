package chat

import (
	"errors"

	"codeberg.org/chatgate/server/internal/sessions"
)

// the peer went away before the request finished
var ErrClientDisconnected = errors.New("client disconnected")

// lifecycle of a single streaming request
type State string

const (
	StateAdmitted     State = "admitted"
	StateStreaming    State = "streaming"
	StateCompleted    State = "completed"
	StateDisconnected State = "disconnected"
	StateFailed       State = "failed"
)

// terminal reports whether no further transition can happen from s
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateDisconnected || s == StateFailed
}

// Sink is the transport side of a streaming request.
//
// Send is called once per fragment in emission order. Exactly one of Done or
// Error is called at the end of a request that was not disconnected. A non-nil
// error from Send is treated as the peer having gone away.
type Sink interface {
	Send(text string) error
	Done() error
	Error(err error) error
}

// one chat turn submitted by a client
type Request struct {
	UserID  string
	Message string
}

// outcome of a streaming request
type Result struct {
	State    State
	UserID   string
	Response string // assistant text forwarded so far
	Err      error  // set for failed and disconnected outcomes
}

// the store-facing operations the controller depends on
type History interface {
	GetHistory(userID string) []sessions.Turn
	AppendTurns(userID string, turns []sessions.Turn) error
}

// Interface guard
var _ History = (*sessions.Store)(nil)

// the function shape of Sink, handy for tests and small adapters
type SinkFuncs struct {
	OnSend  func(text string) error
	OnDone  func() error
	OnError func(err error) error
}

func (s SinkFuncs) Send(text string) error {
	if s.OnSend == nil {
		return nil
	}
	return s.OnSend(text)
}

func (s SinkFuncs) Done() error {
	if s.OnDone == nil {
		return nil
	}
	return s.OnDone()
}

func (s SinkFuncs) Error(err error) error {
	if s.OnError == nil {
		return nil
	}
	return s.OnError(err)
}
