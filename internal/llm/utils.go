package llm

import (
	"context"

	"codeberg.org/chatgate/server/internal/sessions"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// delivers f unless ctx is cancelled first
func send(ctx context.Context, out chan<- Fragment, f Fragment) bool {
	select {
	case out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

// returns a closed stream carrying a single failure
func failed(ctx context.Context, provider Provider, err error) <-chan Fragment {
	out := make(chan Fragment, 1)

	if ctx.Err() == nil {
		out <- Fragment{Err: &ProviderError{Provider: provider, Err: err}}
	}

	close(out)

	return out
}

func toOpenAIMessages(turns []sessions.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))

	for _, t := range turns {
		switch t.Role {
		case sessions.RoleUser:
			messages = append(messages, openai.UserMessage(t.Content))
		case sessions.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(t.Content))
		}
	}

	return messages
}

func toAnthropicMessages(turns []sessions.Turn) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(turns))

	for _, t := range turns {
		switch t.Role {
		case sessions.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		case sessions.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		}
	}

	return messages
}
