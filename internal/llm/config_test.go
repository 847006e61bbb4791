package llm

import "codeberg.org/chatgate/server/internal/config"

var (
	appConfigOpenAI = config.Config{
		Provider:      config.ProviderOpenAI,
		OpenAIKey:     "sk",
		OpenAIBaseURL: "http://local/v1",
		OpenAIModel:   "gpt-x",
		AnthropicKey:  "ak",
	}

	appConfigAnthropic = config.Config{
		Provider:       config.ProviderAnthropic,
		OpenAIKey:      "sk",
		OpenAIBaseURL:  "http://local/v1",
		AnthropicKey:   "ak",
		AnthropicModel: "claude-x",
	}
)
