package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const requestTimeout = 10 * time.Second

// creates a client for the session and health endpoints
func NewSessionClient(endpoint, userID string) *SessionClient {
	return &SessionClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		userID:   userID,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// asks the server to forget this user's conversation; a session the server
// never had counts as reset
func (c *SessionClient) Reset(ctx context.Context) error {
	if c.userID == "" {
		return fmt.Errorf("set CHATGATE_USER_ID to reset a session")
	}

	target := fmt.Sprintf("%s/api/sessions/%s", c.endpoint, url.PathEscape(c.userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNotFound:
		return nil
	default:
		return readAPIError(resp)
	}
}

// reads the chat health probe
func (c *SessionClient) Health(ctx context.Context) (HealthMsg, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/chat/health", nil)
	if err != nil {
		return HealthMsg{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthMsg{}, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return HealthMsg{}, readAPIError(resp)
	}

	var body struct {
		Status string `json:"status"`
		Model  string `json:"model"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return HealthMsg{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return HealthMsg{Status: body.Status, Model: body.Model}, nil
}

func (c *SessionClient) ResetCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := c.Reset(ctx); err != nil {
			return ErrorMsg{err: err}
		}
		return SessionResetMsg{}
	}
}

func (c *SessionClient) HealthCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		health, err := c.Health(ctx)
		if err != nil {
			return ErrorMsg{err: err}
		}
		return health
	}
}
