package config

import "time"

type Config struct {
	Environment string

	// generation provider
	Provider          string
	OpenAIKey         string
	OpenAIBaseURL     string
	OpenAIModel       string
	AnthropicKey      string
	AnthropicModel    string
	MaxTokens         int
	Temperature       float64
	ProviderRateLimit float64 // stream openings per second, 0 disables
	ProviderRateBurst int

	// http server
	Host        string
	Port        string
	CORSOrigins []string

	// admission and session retention
	MaxConcurrentGenerations int
	SessionTTL               time.Duration
	CleanupInterval          time.Duration
	DefaultUserID            string

	LogLevel string
}

// returns the listen address in host:port form
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}
