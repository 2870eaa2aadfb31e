package cmd

import (
	"fmt"

	"github.com/harsh16kumar/jobpilot/internal/ai/gemini"
	"github.com/harsh16kumar/jobpilot/internal/secrets"

	"github.com/spf13/viper"
)

// buildGenerator assembles the key pool from config and environment and
// constructs the Gemini client on top of it.
func buildGenerator(config *Config) (*gemini.Generator, error) {
	var pool []secrets.Source

	model := ""
	temperature := float32(viper.GetFloat64("ai.gemini.temperature"))
	if config.AI != nil && config.AI.Gemini != nil {
		gem := config.AI.Gemini
		model = gem.Model
		temperature = float32(gem.Temperature)

		for i, key := range gem.APIKeys {
			pool = append(pool, secrets.Source{
				Name:  fmt.Sprintf("gemini api key #%d", i+1),
				Value: key,
			})
		}
		for i, file := range gem.APIKeyFiles {
			pool = append(pool, secrets.Source{
				Name: fmt.Sprintf("gemini api key file #%d", i+1),
				File: file,
			})
		}
	}

	if key := viper.GetString("ai.gemini.api-key"); key != "" {
		pool = append(pool, secrets.Source{Name: "gemini api key (env)", Value: key})
	}

	provider, err := secrets.NewRotating(pool...)
	if err != nil {
		return nil, fmt.Errorf("resolving gemini credentials: %w", err)
	}

	return gemini.NewGenerator(provider, model, temperature)
}
