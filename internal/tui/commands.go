package tui

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"codeberg.org/chatgate/server/internal/logger"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	serverPath    = "bin/server"
	serverLogPath = "bin/server.log"
)

// sent once a local server process was launched
type ServerStartedMsg struct {
	LogPath string
}

// builds the server if needed and runs it in the background, logging to a file
func startServer() tea.Msg {
	if _, err := os.Stat(serverPath); os.IsNotExist(err) {
		buildCmd := exec.Command("go", "build", "-o", serverPath, "./cmd/server")
		if out, err := buildCmd.CombinedOutput(); err != nil {
			return ErrorMsg{err: fmt.Errorf("failed to build server: %w: %s", err, out)}
		}
	}

	if err := os.MkdirAll(filepath.Dir(serverLogPath), 0o755); err != nil {
		return ErrorMsg{err: fmt.Errorf("failed to create log directory: %w", err)}
	}

	logFile, err := os.OpenFile(serverLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return ErrorMsg{err: fmt.Errorf("failed to open server log: %w", err)}
	}

	cmd := exec.Command(serverPath)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return ErrorMsg{err: fmt.Errorf("failed to start server: %w", err)}
	}

	go func() {
		defer logFile.Close()
		if err := cmd.Wait(); err != nil {
			logger.ErrorErr(err, "server exited")
		}
	}()

	return ServerStartedMsg{LogPath: serverLogPath}
}
