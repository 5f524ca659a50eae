// Package generation selects the text-generation backend from configuration.
package generation

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/simiyu-dess/OnboardIQ/internal/config"
	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/generation/genai"
	"github.com/simiyu-dess/OnboardIQ/internal/generation/ollama"
	"github.com/simiyu-dess/OnboardIQ/internal/generation/openai"
)

// New builds the generator selected by cfg.Type.
func New(ctx context.Context, cfg config.GeneratorConfig) (domain.Generator, error) {
	switch cfg.Type {
	case "ollama":
		c := cfg.Ollama
		if c == nil {
			c = &config.OllamaConfig{}
		}
		return ollama.NewClient(c.BaseURL, c.Model, time.Duration(c.TimeoutSecs)*time.Second), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("generator type openai requires an openai section")
		}
		return openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		})
	case "genai":
		if cfg.GenAI == nil {
			return nil, fmt.Errorf("generator type genai requires a genai section")
		}
		return genai.NewClient(ctx, os.Getenv(cfg.GenAI.APIKeyEnv), cfg.GenAI.Model)
	default:
		return nil, fmt.Errorf("unknown generator type %q", cfg.Type)
	}
}
