package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// builds the app; width seeds the markdown wrap until the first resize
func NewApp(config Config, width int) *Model {
	if config.Transport == "" {
		config.Transport = TransportSSE
	}

	return &Model{
		state:    StateWelcome,
		config:   config,
		width:    width,
		welcome:  NewWelcome(config),
		chat:     NewChatModel(NewStreamer(config), width),
		sessions: NewSessionClient(config.Endpoint, config.UserID),
	}
}

// picks the reply transport named in config
func NewStreamer(config Config) Streamer {
	if strings.EqualFold(config.Transport, TransportWebSocket) {
		return NewWSClient(config.Endpoint, config.UserID)
	}
	return NewSSEClient(config.Endpoint, config.UserID)
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case msg.String() == "ctrl+c" && m.state == StateWelcome:
			_ = m.chat.streamer.Close()
			return m, tea.Quit

		// in chat, ctrl+c abandons the reply and goes back to welcome
		case msg.String() == "ctrl+c" && m.state == StateChat:
			m.chat.stopStream("cancelled")
			m.state = StateWelcome
			return m, nil

		case msg.String() == "ctrl+r" && m.state == StateChat:
			return m, m.sessions.ResetCmd()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// the chat keeps its layout current even while hidden
		m.chat, _ = m.chat.Update(msg)
		return m, nil

	case EnterChatMsg:
		m.state = StateChat
		if !m.chat.ready && m.width > 0 && m.height > 0 {
			m.chat.resize(m.width, m.height)
		}
		return m, m.chat.Init()

	// replies belong to the chat whichever screen is showing
	case streamOpenedMsg, streamEventMsg:
		return m.updateChat(msg)

	case resetRequestMsg:
		return m, m.sessions.ResetCmd()

	case healthRequestMsg:
		return m, m.sessions.HealthCmd()
	}

	switch m.state {
	case StateWelcome:
		return m.updateWelcome(msg)

	case StateChat:
		return m.updateChat(msg)

	default:
		return m, nil
	}
}

func (m *Model) View() string {
	switch m.state {
	case StateWelcome:
		return m.welcome.View()

	case StateChat:
		return m.chat.View()

	default:
		return "Unknown state"
	}
}

func (m *Model) updateWelcome(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.welcome, cmd = m.welcome.Update(msg)

	return m, cmd
}

func (m *Model) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)

	return m, cmd
}
