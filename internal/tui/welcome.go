package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// returns a new welcome screen
func NewWelcome(config Config) *Welcome {
	commands := []Command{
		{Name: "chat", Description: "talk to the assistant", Available: true},
		{Name: "reset", Description: "forget the stored conversation", Available: config.UserID != ""},
		{Name: "health", Description: "check the server and its model", Available: true},
		{Name: "start", Description: "start a local chatgate server", Available: config.Environment == "development"},
		{Name: "quit", Description: "exit chatgate", Available: true},
	}

	return &Welcome{
		config:   config,
		commands: commands,
	}
}

func (m *Welcome) Update(msg tea.Msg) (*Welcome, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			cmd := m.executeCommand()
			m.input = ""
			return m, cmd
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		default:
			if len(msg.String()) == 1 {
				m.input += msg.String()
			}
		}

	case ServerStartedMsg:
		m.status = fmt.Sprintf("server started, logging to %s", msg.LogPath)

	case SessionResetMsg:
		m.status = "session reset"

	case HealthMsg:
		m.status = fmt.Sprintf("server %s, model %s", msg.Status, msg.Model)

	case ErrorMsg:
		m.status = "error: " + msg.err.Error()
	}

	return m, nil
}

func (m *Welcome) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(logo))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("streaming chat in your terminal"))
	b.WriteString("\n\n")

	user := m.config.UserID
	if user == "" {
		user = "server default"
	}
	info := fmt.Sprintf("server: %s | transport: %s | user: %s", m.config.Endpoint, m.config.Transport, user)
	b.WriteString(infoStyle.Render(info))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Render("commands:"))
	b.WriteString("\n\n")

	for _, cmd := range m.commands {
		if !cmd.Available {
			continue
		}
		line := fmt.Sprintf("  %s %s",
			commandStyle.Render(cmd.Name),
			commandDescStyle.Render("- "+cmd.Description),
		)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")

	prompt := promptStyle.Render("> ")
	input := inputStyle.Render(m.input + "_")
	b.WriteString(prompt + input)
	b.WriteString("\n")

	switch {
	case strings.HasPrefix(m.status, "error"):
		b.WriteString(errorStyle.Render(m.status))
	case m.status != "":
		b.WriteString(infoStyle.Render(m.status))
	}
	b.WriteString("\n")

	b.WriteString(helpStyle.Render("type a command and press enter. press ctrl+c to quit."))

	return b.String()
}

// reports whether name is a command that exists but is switched off
func (m *Welcome) unavailable(name string) bool {
	for _, cmd := range m.commands {
		if cmd.Name == name {
			return !cmd.Available
		}
	}
	return false
}

func (m *Welcome) executeCommand() tea.Cmd {
	cmd := strings.TrimSpace(m.input)

	if m.unavailable(cmd) {
		return func() tea.Msg {
			return ErrorMsg{err: fmt.Errorf("%s is not available here", cmd)}
		}
	}

	switch cmd {
	case "quit":
		return tea.Quit

	case "chat":
		return func() tea.Msg {
			return EnterChatMsg{}
		}

	case "reset":
		return func() tea.Msg {
			return resetRequestMsg{}
		}

	case "health":
		return func() tea.Msg {
			return healthRequestMsg{}
		}

	case "start":
		return startServer

	case "":
		return nil

	default:
		return func() tea.Msg {
			return ErrorMsg{err: fmt.Errorf("unknown command: %s", cmd)}
		}
	}
}

// asks the app to reset the session through its session client
type resetRequestMsg struct{}

// asks the app to probe the server
type healthRequestMsg struct{}
