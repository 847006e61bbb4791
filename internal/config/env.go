package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const (
	defaultOpenAIBaseURL     = "https://api.openai.com/v1"
	defaultOpenAIModel       = "gpt-4o-mini"
	defaultAnthropicModel    = "claude-3-5-haiku-latest"
	defaultMaxTokens         = 4096
	defaultTemperature       = 0.7
	defaultHost              = "0.0.0.0"
	defaultPort              = "8000"
	defaultCORSOrigins       = `["http://localhost:5173", "http://localhost:3000"]`
	defaultMaxConcurrent     = 10
	defaultSessionTTL        = 24 * time.Hour
	defaultCleanupInterval   = time.Hour
	defaultUserID            = "default_user"
	defaultProviderRateBurst = 10
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	return Load(os.Getenv)
}

// builds a Config from a variable lookup function
func Load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Environment:    orDefault(getenv("ENVIRONMENT"), "development"),
		Provider:       strings.ToLower(orDefault(getenv("GENERATOR_PROVIDER"), ProviderOpenAI)),
		OpenAIKey:      getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  orDefault(getenv("OPENAI_API_BASE"), defaultOpenAIBaseURL),
		OpenAIModel:    orDefault(getenv("OPENAI_MODEL"), defaultOpenAIModel),
		AnthropicKey:   getenv("ANTHROPIC_API_KEY"),
		AnthropicModel: orDefault(getenv("ANTHROPIC_MODEL"), defaultAnthropicModel),
		Host:           orDefault(getenv("API_HOST"), defaultHost),
		Port:           orDefault(getenv("API_PORT"), defaultPort),
		DefaultUserID:  orDefault(getenv("DEFAULT_USER_ID"), defaultUserID),
		LogLevel:       getenv("LOG_LEVEL"),
	}

	var err error

	if cfg.MaxTokens, err = intVar(getenv, "GENERATOR_MAX_TOKENS", defaultMaxTokens); err != nil {
		return nil, err
	}

	if cfg.Temperature, err = floatVar(getenv, "GENERATOR_TEMPERATURE", defaultTemperature); err != nil {
		return nil, err
	}

	if cfg.ProviderRateLimit, err = floatVar(getenv, "PROVIDER_RATE_LIMIT", 0); err != nil {
		return nil, err
	}

	if cfg.ProviderRateBurst, err = intVar(getenv, "PROVIDER_RATE_BURST", defaultProviderRateBurst); err != nil {
		return nil, err
	}

	if cfg.MaxConcurrentGenerations, err = intVar(getenv, "MAX_CONCURRENT_GENERATIONS", defaultMaxConcurrent); err != nil {
		return nil, err
	}

	if cfg.SessionTTL, err = durationVar(getenv, "SESSION_TTL", defaultSessionTTL); err != nil {
		return nil, err
	}

	if cfg.CleanupInterval, err = durationVar(getenv, "SESSION_CLEANUP_INTERVAL", defaultCleanupInterval); err != nil {
		return nil, err
	}

	if cfg.CORSOrigins, err = parseOrigins(orDefault(getenv("CORS_ORIGINS"), defaultCORSOrigins)); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
	case ProviderAnthropic:
		if c.AnthropicKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
		}
	default:
		return fmt.Errorf("unsupported GENERATOR_PROVIDER: %s", c.Provider)
	}

	if c.MaxConcurrentGenerations < 1 {
		return fmt.Errorf("MAX_CONCURRENT_GENERATIONS must be at least 1, got %d", c.MaxConcurrentGenerations)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if c.CleanupInterval <= 0 {
		return fmt.Errorf("SESSION_CLEANUP_INTERVAL must be positive")
	}

	for _, origin := range c.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ORIGINS entry %q must be * or start with http:// or https://", origin)
		}
	}

	return nil
}

// accepts a JSON array or a comma-separated list
func parseOrigins(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "[") {
		var origins []string
		if err := json.Unmarshal([]byte(raw), &origins); err != nil {
			return nil, fmt.Errorf("invalid CORS_ORIGINS: %w", err)
		}
		return origins, nil
	}

	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return origins, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intVar(getenv func(string) string, name string, def int) (int, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	return n, nil
}

func floatVar(getenv func(string) string, name string, def float64) (float64, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	return f, nil
}

// durations accept Go syntax ("90m") or plain seconds ("3600")
func durationVar(getenv func(string) string, name string, def time.Duration) (time.Duration, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}

	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	return d, nil
}
