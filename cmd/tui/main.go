package main

import (
	"fmt"
	"io"
	"os"

	"codeberg.org/chatgate/server/internal/logger"
	"codeberg.org/chatgate/server/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/joho/godotenv"
)

const (
	defaultEndpoint = "http://localhost:8000"
	defaultWidth    = 100
)

func main() {
	_ = godotenv.Load()

	// the terminal belongs to the ui
	logger.Swap(logger.New(os.Getenv("ENVIRONMENT"), "error", io.Discard))

	config := tui.Config{
		Endpoint:    envOr("CHATGATE_API_ENDPOINT", defaultEndpoint),
		UserID:      os.Getenv("CHATGATE_USER_ID"),
		Transport:   envOr("CHATGATE_TRANSPORT", tui.TransportSSE),
		Environment: envOr("ENVIRONMENT", "development"),
	}

	width := defaultWidth
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		width = w
	}

	app := tui.NewApp(config, width)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		fmt.Printf("error running chatgate: %v\n", err)
		os.Exit(1)
	}
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
