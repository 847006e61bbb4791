package main

import (
	"fmt"

	"codeberg.org/chatgate/server/internal/config"
	"codeberg.org/chatgate/server/internal/llm"
)

// creates and configures all service clients
func InitializeServices(cfg *config.Config) (*Services, error) {
	generator, err := llm.NewGenerator(llm.ConfigFromApp(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	return &Services{
		Generator: generator,
	}, nil
}
