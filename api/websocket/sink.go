package websocket

import (
	"codeberg.org/chatgate/server/internal/chat"
	"codeberg.org/chatgate/server/internal/errors"
	ws "codeberg.org/chatgate/server/internal/websocket"
)

// relays controller events as websocket messages
type clientSink struct {
	client *ws.Client
}

// Interface guard
var _ chat.Sink = clientSink{}

func (s clientSink) Send(text string) error {
	return s.client.SendChunk(text)
}

func (s clientSink) Done() error {
	return s.client.SendDone()
}

func (s clientSink) Error(err error) error {
	return s.client.SendError(errors.Sanitize(err))
}
