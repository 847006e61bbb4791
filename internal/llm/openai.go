package llm

import (
	"context"
	"fmt"

	"codeberg.org/chatgate/server/internal/sessions"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // e.g. "https://api.openai.com/v1" or any compatible gateway
	Model       string
	MaxTokens   int
	Temperature float64
}

// streams chat completions from an OpenAI-compatible endpoint
type OpenAIGenerator struct {
	config OpenAIConfig
	client openai.Client
}

func NewOpenAIGenerator(config OpenAIConfig) *OpenAIGenerator {
	if config.Model == "" {
		config.Model = defaultOpenAIModel
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &OpenAIGenerator{
		config: config,
		client: openai.NewClient(opts...),
	}
}

func (g *OpenAIGenerator) Model() string {
	return g.config.Model
}

func (g *OpenAIGenerator) Stream(ctx context.Context, turns []sessions.Turn) <-chan Fragment {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.config.Model),
		Messages: toOpenAIMessages(turns),
	}

	if g.config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(g.config.MaxTokens))
	}

	if g.config.Temperature > 0 {
		params.Temperature = openai.Float(g.config.Temperature)
	}

	out := make(chan Fragment)

	go func() {
		defer close(out)

		stream := g.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close() //nolint:errcheck

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}

			text := chunk.Choices[0].Delta.Content
			if text == "" {
				continue
			}

			if !send(ctx, out, Fragment{Text: text}) {
				return
			}
		}

		if err := stream.Err(); err != nil && ctx.Err() == nil {
			send(ctx, out, Fragment{Err: &ProviderError{
				Provider: ProviderOpenAI,
				Err:      fmt.Errorf("chat completion stream: %w", err),
			}})
		}
	}()

	return out
}
