package llm

import (
	"context"
	"fmt"

	"codeberg.org/chatgate/server/internal/sessions"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultMaxTokens      = 4096
)

type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int     // required by the messages API
	Temperature float64 // 0.0 to 1.0
}

// streams responses from the Anthropic messages API
type AnthropicGenerator struct {
	config AnthropicConfig
	client anthropic.Client
}

func NewAnthropicGenerator(config AnthropicConfig) *AnthropicGenerator {
	if config.Model == "" {
		config.Model = defaultAnthropicModel
	}

	if config.MaxTokens == 0 {
		config.MaxTokens = defaultMaxTokens
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicGenerator{
		config: config,
		client: anthropic.NewClient(opts...),
	}
}

func (g *AnthropicGenerator) Model() string {
	return g.config.Model
}

func (g *AnthropicGenerator) Stream(ctx context.Context, turns []sessions.Turn) <-chan Fragment {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.config.Model),
		MaxTokens: int64(g.config.MaxTokens),
		Messages:  toAnthropicMessages(turns),
	}

	if g.config.Temperature > 0 {
		params.Temperature = anthropic.Float(g.config.Temperature)
	}

	out := make(chan Fragment)

	go func() {
		defer close(out)

		stream := g.client.Messages.NewStreaming(ctx, params)
		defer stream.Close() //nolint:errcheck

		for stream.Next() {
			event := stream.Current()

			delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}

			text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
			if !ok || text.Text == "" {
				continue
			}

			if !send(ctx, out, Fragment{Text: text.Text}) {
				return
			}
		}

		if err := stream.Err(); err != nil && ctx.Err() == nil {
			send(ctx, out, Fragment{Err: &ProviderError{
				Provider: ProviderAnthropic,
				Err:      fmt.Errorf("messages stream: %w", err),
			}})
		}
	}()

	return out
}
