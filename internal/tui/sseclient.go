package tui

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	eventDone        = "[DONE]"
	eventErrorPrefix = "[ERROR]"
	maxEventSize     = 1024 * 1024
)

var ErrStreamTruncated = errors.New("stream ended before completion")

// opens one reply stream per user message
type Streamer interface {
	Stream(ctx context.Context, message string) (<-chan StreamEvent, error)
	Close() error
}

type streamRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

// creates a client for the server-sent events endpoint
func NewSSEClient(endpoint, userID string) *SSEClient {
	return &SSEClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		userID:   userID,
		// no timeout: a reply lasts as long as the generation does
		httpClient: &http.Client{},
	}
}

// posts message and relays the reply events until the terminal one
func (c *SSEClient) Stream(ctx context.Context, message string) (<-chan StreamEvent, error) {
	payload, err := json.Marshal(streamRequest{Message: message, UserID: c.userID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat/stream", c.endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, readAPIError(resp)
	}

	events := make(chan StreamEvent, 16)

	go func() {
		defer close(events)
		defer resp.Body.Close()
		readEvents(ctx, resp.Body, events)
	}()

	return events, nil
}

func (c *SSEClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// parses an event stream, emitting until a terminal event or the end of r
func readEvents(ctx context.Context, r io.Reader, out chan<- StreamEvent) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var data []string

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if len(data) == 0 {
				continue
			}

			event := decodeEvent(strings.Join(data, "\n"))
			data = data[:0]

			if !emit(ctx, out, event) || event.Done || event.Err != nil {
				return
			}
			continue
		}

		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(payload, " "))
		}
		// comments, ids and event names carry nothing for us
	}

	if ctx.Err() != nil {
		return
	}

	err := scanner.Err()
	if err == nil {
		err = ErrStreamTruncated
	}
	emit(ctx, out, StreamEvent{Err: err})
}

func decodeEvent(payload string) StreamEvent {
	if payload == eventDone {
		return StreamEvent{Done: true}
	}

	if reason, ok := strings.CutPrefix(payload, eventErrorPrefix); ok {
		return StreamEvent{Err: errors.New(strings.TrimSpace(reason))}
	}

	return StreamEvent{Text: payload}
}

func emit(ctx context.Context, out chan<- StreamEvent, event StreamEvent) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// turns a non-200 response into an error carrying the server's message
func readAPIError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if apiErr.Details != "" {
		return fmt.Errorf("%s: %s", apiErr.Message, apiErr.Details)
	}

	return errors.New(apiErr.Message)
}
