package chat

import (
	"fmt"
	"net/http"
	"strings"

	"codeberg.org/chatgate/server/internal/errors"
	"github.com/gin-gonic/gin"
)

const (
	doneSentinel = "[DONE]"
	errorPrefix  = "[ERROR] "
)

// writes controller events as server-sent events
type sseSink struct {
	w gin.ResponseWriter
}

func newSSESink(c *gin.Context) *sseSink {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	return &sseSink{w: c.Writer}
}

func (s *sseSink) Send(text string) error {
	return s.event(text)
}

func (s *sseSink) Done() error {
	return s.event(doneSentinel)
}

func (s *sseSink) Error(err error) error {
	return s.event(errorPrefix + errors.Sanitize(err))
}

// one event per call; a payload spanning lines becomes several data fields
// which the client joins back with newlines
func (s *sseSink) event(payload string) error {
	var b strings.Builder

	for _, line := range strings.Split(payload, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimSuffix(line, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if _, err := s.w.WriteString(b.String()); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	s.w.Flush()

	return nil
}
