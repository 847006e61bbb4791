package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"

	chatHeader = "CHAT"
	// header, input box and status line
	chromeHeight = 7
)

// returns a new chat screen streaming through streamer
func NewChatModel(streamer Streamer, width int) *ChatModel {
	ti := textinput.New()
	ti.Placeholder = "say something..."
	ti.Focus()
	ti.CharLimit = 16000
	ti.Width = 80
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorLightGray)
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorWhite)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPurple)

	m := &ChatModel{
		input:    ti,
		spinner:  sp,
		streamer: streamer,
	}
	m.setRenderer(width)

	return m
}

func (m *ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *ChatModel) setRenderer(width int) {
	wrap := width - 8
	if wrap < 20 {
		wrap = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		// plain text still works
		m.renderer = nil
		return
	}
	m.renderer = r
}

func (m *ChatModel) Update(msg tea.Msg) (*ChatModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return m, m.submit()

		case "esc":
			m.stopStream("cancelled")
			return m, nil

		case "ctrl+l":
			m.conversation = nil
			m.status = ""
			m.refresh()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case streamOpenedMsg:
		if !m.streaming {
			// stopped before the server answered
			msg.cancel()
			return m, nil
		}
		m.events = msg.events
		m.cancel = msg.cancel
		m.conversation = append(m.conversation, ChatMessage{Role: roleAssistant})
		return m, waitForEvent(m.events)

	case streamEventMsg:
		if !m.streaming || msg.events != m.events {
			return m, nil
		}
		return m, m.applyEvent(msg.event)

	case SessionResetMsg:
		m.conversation = nil
		m.status = "session reset"
		m.refresh()
		return m, nil

	case ErrorMsg:
		m.status = "error: " + msg.err.Error()
		return m, nil

	case spinner.TickMsg:
		if m.streaming {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// sends the typed message and opens its reply stream
func (m *ChatModel) submit() tea.Cmd {
	message := strings.TrimSpace(m.input.Value())
	if message == "" || m.streaming {
		return nil
	}

	m.input.SetValue("")
	m.streaming = true
	m.status = ""
	m.conversation = append(m.conversation, ChatMessage{Role: roleUser, Content: message})
	m.refresh()

	return tea.Batch(openStream(m.streamer, message), m.spinner.Tick)
}

func (m *ChatModel) applyEvent(event StreamEvent) tea.Cmd {
	switch {
	case event.Err != nil:
		m.finishStream("error: " + event.Err.Error())
		return nil

	case event.Done:
		m.finishStream("")
		return nil
	}

	if n := len(m.conversation); n > 0 && m.conversation[n-1].Role == roleAssistant {
		m.conversation[n-1].Content += event.Text
	}
	m.refresh()

	return waitForEvent(m.events)
}

// abandons the open stream; the server sees a disconnect
func (m *ChatModel) stopStream(status string) {
	if !m.streaming {
		return
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.finishStream(status)
}

func (m *ChatModel) finishStream(status string) {
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = nil
	m.events = nil
	m.streaming = false
	m.status = status
	m.input.Focus()
	m.refresh()
}

func (m *ChatModel) resize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(10, width-10)

	vh := max(3, height-chromeHeight)
	if !m.ready {
		m.viewport = viewport.New(width-4, vh)
		m.ready = true
	} else {
		m.viewport.Width = width - 4
		m.viewport.Height = vh
	}

	m.setRenderer(width)
	m.refresh()
}

// re-renders the conversation and keeps the newest text in view
func (m *ChatModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m *ChatModel) renderConversation() string {
	if len(m.conversation) == 0 {
		return infoStyle.Render("ready! type a message below and press enter.")
	}

	var b strings.Builder

	for _, msg := range m.conversation {
		switch msg.Role {
		case roleUser:
			b.WriteString(userLabelStyle.Render("you"))
			b.WriteString("\n")
			b.WriteString(userTextStyle.Render(msg.Content))
			b.WriteString("\n\n")

		case roleAssistant:
			b.WriteString(assistantLabelStyle.Render("assistant"))
			b.WriteString("\n")
			b.WriteString(m.renderMarkdown(msg.Content))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m *ChatModel) renderMarkdown(content string) string {
	if m.renderer == nil || content == "" {
		return content + "\n"
	}

	out, err := m.renderer.Render(content)
	if err != nil {
		return content + "\n"
	}

	return out
}

func (m *ChatModel) View() string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorWhite).
		Render(chatHeader)

	help := helpKeysStyle.Render("[Enter: Send] [Esc: Stop] [Ctrl+L: Clear] [Ctrl+R: Reset] [Ctrl+C: Back]")

	headerLine := lipgloss.JoinHorizontal(lipgloss.Left,
		header,
		strings.Repeat(" ", max(0, m.width-lipgloss.Width(header)-lipgloss.Width(help)-2)),
		help,
	)

	b.WriteString(headerLine)
	b.WriteString("\n")

	if m.ready {
		b.WriteString(borderStyle.Width(m.width - 2).Render(m.viewport.View()))
	} else {
		b.WriteString(infoStyle.Render("initializing..."))
	}
	b.WriteString("\n")

	b.WriteString(borderStyle.Width(m.width-2).Padding(0, 1).Render(m.input.View()))
	b.WriteString("\n")

	switch {
	case m.streaming:
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), infoStyle.Render("streaming reply...")))
	case strings.HasPrefix(m.status, "error"):
		b.WriteString(errorStyle.Render(m.status))
	case m.status != "":
		b.WriteString(infoStyle.Render(m.status))
	}

	return b.String()
}

// opens a reply stream outside the update loop
func openStream(streamer Streamer, message string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())

		events, err := streamer.Stream(ctx, message)
		if err != nil {
			cancel()
			return streamEventMsg{event: StreamEvent{Err: err}}
		}

		return streamOpenedMsg{events: events, cancel: cancel}
	}
}

// reads the next event; a closed channel without a terminal event is a truncation
func waitForEvent(events <-chan StreamEvent) tea.Cmd {
	if events == nil {
		return nil
	}

	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return streamEventMsg{events: events, event: StreamEvent{Err: ErrStreamTruncated}}
		}
		return streamEventMsg{events: events, event: event}
	}
}
