package llm

import (
	"context"
	"fmt"

	"codeberg.org/chatgate/server/internal/sessions"
)

// represents different LLM providers
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"

	providerRateLimiter Provider = "rate_limiter"
)

// a downstream text-generation call.
//
// Stream sends text fragments in emission order and closes the channel when
// generation ends. A failure is reported as one final Fragment with Err set.
// Implementations stop sending and close the channel once ctx is cancelled.
type Generator interface {
	Stream(ctx context.Context, turns []sessions.Turn) <-chan Fragment
	Model() string
}

// a piece of generated text, or the terminal failure of a stream
type Fragment struct {
	Text string
	Err  error
}

// the generation call failed or produced unusable data
type ProviderError struct {
	Provider Provider
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// holds configuration for generator initialization
type Config struct {
	Provider    Provider
	APIKey      string
	BaseURL     string // openai-compatible endpoints only
	Model       string
	MaxTokens   int
	Temperature float64

	// outbound throttle on stream openings, zero disables
	RateLimit float64
	RateBurst int
}
