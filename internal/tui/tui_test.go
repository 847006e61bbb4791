package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hands out a channel the test fills by hand
type fakeStreamer struct {
	events   chan StreamEvent
	messages []string
	err      error
}

func (f *fakeStreamer) Stream(_ context.Context, message string) (<-chan StreamEvent, error) {
	f.messages = append(f.messages, message)
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeStreamer) Close() error { return nil }

func newTestChat(streamer Streamer) *ChatModel {
	m := NewChatModel(streamer, 100)
	m.resize(100, 40)
	return m
}

func typeMessage(m *ChatModel, text string) tea.Cmd {
	m.input.SetValue(text)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func TestChatStreamsReplyIntoConversation(t *testing.T) {
	streamer := &fakeStreamer{events: make(chan StreamEvent, 4)}
	m := newTestChat(streamer)

	require.NotNil(t, typeMessage(m, "hello"))
	assert.True(t, m.streaming)
	assert.Equal(t, []ChatMessage{{Role: roleUser, Content: "hello"}}, m.conversation)

	msg := openStream(streamer, "hello")()
	opened, ok := msg.(streamOpenedMsg)
	require.True(t, ok)
	assert.Equal(t, []string{"hello"}, streamer.messages)

	m, cmd := m.Update(opened)
	require.NotNil(t, cmd)

	streamer.events <- StreamEvent{Text: "Hi "}
	m, cmd = m.Update(cmd())
	require.NotNil(t, cmd)

	streamer.events <- StreamEvent{Text: "there"}
	m, cmd = m.Update(cmd())

	streamer.events <- StreamEvent{Done: true}
	m, cmd = m.Update(cmd())
	assert.Nil(t, cmd)

	assert.False(t, m.streaming)
	assert.Empty(t, m.status)
	require.Len(t, m.conversation, 2)
	assert.Equal(t, ChatMessage{Role: roleAssistant, Content: "Hi there"}, m.conversation[1])
}

func TestChatIgnoresBlankAndConcurrentSubmits(t *testing.T) {
	m := newTestChat(&fakeStreamer{events: make(chan StreamEvent)})

	assert.Nil(t, typeMessage(m, "   "))
	assert.False(t, m.streaming)

	require.NotNil(t, typeMessage(m, "first"))
	assert.Nil(t, typeMessage(m, "second"))
	assert.Len(t, m.conversation, 1)
}

func TestChatShowsStreamError(t *testing.T) {
	streamer := &fakeStreamer{err: errors.New("server returned 503")}
	m := newTestChat(streamer)

	typeMessage(m, "hello")

	m, _ = m.Update(openStream(streamer, "hello")())

	assert.False(t, m.streaming)
	assert.Equal(t, "error: server returned 503", m.status)
}

func TestChatEscAbandonsReply(t *testing.T) {
	streamer := &fakeStreamer{events: make(chan StreamEvent, 1)}
	m := newTestChat(streamer)

	typeMessage(m, "hello")

	opened := openStream(streamer, "hello")().(streamOpenedMsg)
	m, _ = m.Update(opened)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.streaming)
	assert.Equal(t, "cancelled", m.status)

	// a late event from the abandoned stream changes nothing
	m, cmd := m.Update(streamEventMsg{events: opened.events, event: StreamEvent{Text: "late"}})
	assert.Nil(t, cmd)
	assert.Equal(t, "", m.conversation[1].Content)
}

func TestWaitForEventReportsTruncation(t *testing.T) {
	events := make(chan StreamEvent)
	close(events)

	msg := waitForEvent(events)().(streamEventMsg)
	assert.ErrorIs(t, msg.event.Err, ErrStreamTruncated)
}

func TestWelcomeCommands(t *testing.T) {
	w := NewWelcome(Config{Endpoint: "http://localhost:8000", Transport: TransportSSE, Environment: "production"})

	w.input = "chat"
	_, cmd := w.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, EnterChatMsg{}, cmd())
	assert.Empty(t, w.input)

	// no user id configured means there is no session to reset
	w.input = "reset"
	_, cmd = w.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.IsType(t, ErrorMsg{}, cmd())

	w.input = "dance"
	_, cmd = w.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg := cmd().(ErrorMsg)
	assert.Equal(t, "unknown command: dance", msg.err.Error())

	w, _ = w.Update(HealthMsg{Status: "healthy", Model: "gpt-4o-mini"})
	assert.Equal(t, "server healthy, model gpt-4o-mini", w.status)
}

func TestNewStreamerPicksTransport(t *testing.T) {
	assert.IsType(t, &SSEClient{}, NewStreamer(Config{Endpoint: "http://x"}))
	assert.IsType(t, &WSClient{}, NewStreamer(Config{Endpoint: "http://x", Transport: "WS"}))
}
