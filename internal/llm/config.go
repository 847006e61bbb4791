package llm

import "codeberg.org/chatgate/server/internal/config"

// maps process configuration onto generator configuration
func ConfigFromApp(cfg *config.Config) Config {
	c := Config{
		Provider:    Provider(cfg.Provider),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		RateLimit:   cfg.ProviderRateLimit,
		RateBurst:   cfg.ProviderRateBurst,
	}

	switch c.Provider {
	case ProviderAnthropic:
		c.APIKey = cfg.AnthropicKey
		c.Model = cfg.AnthropicModel
	default:
		c.APIKey = cfg.OpenAIKey
		c.BaseURL = cfg.OpenAIBaseURL
		c.Model = cfg.OpenAIModel
	}

	return c
}
