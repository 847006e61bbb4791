package llm

import (
	"context"
	"fmt"

	"codeberg.org/chatgate/server/internal/sessions"
	"golang.org/x/time/rate"
)

// creates the generator selected by config
func NewGenerator(config Config) (Generator, error) {
	var g Generator

	switch config.Provider {
	case ProviderOpenAI:
		g = NewOpenAIGenerator(OpenAIConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			MaxTokens:   config.MaxTokens,
			Temperature: config.Temperature,
		})
	case ProviderAnthropic:
		g = NewAnthropicGenerator(AnthropicConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			MaxTokens:   config.MaxTokens,
			Temperature: config.Temperature,
		})
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", config.Provider)
	}

	if config.RateLimit > 0 {
		g = NewRateLimited(g, config.RateLimit, config.RateBurst)
	}

	return g, nil
}

// throttles how fast new streams are opened against the provider
type RateLimited struct {
	Generator
	limiter *rate.Limiter
}

func NewRateLimited(g Generator, perSecond float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}

	return &RateLimited{
		Generator: g,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (r *RateLimited) Stream(ctx context.Context, turns []sessions.Turn) <-chan Fragment {
	if err := r.limiter.Wait(ctx); err != nil {
		return failed(ctx, providerRateLimiter, fmt.Errorf("rate limiter error: %w", err))
	}

	return r.Generator.Stream(ctx, turns)
}
