package embedding

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/simiyu-dess/OnboardIQ/internal/config"
	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/embedding/genai"
	"github.com/simiyu-dess/OnboardIQ/internal/embedding/ollama"
	"github.com/simiyu-dess/OnboardIQ/internal/embedding/openai"
	"github.com/simiyu-dess/OnboardIQ/internal/embedding/tfidf"
)

// New builds the embedder selected by cfg.Type.
func New(ctx context.Context, cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf":
		return tfidf.NewEmbedder(tfidf.DefaultDimension), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("embedder type openai requires an openai section")
		}
		return openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		})
	case "ollama":
		c := cfg.Ollama
		if c == nil {
			c = &config.OllamaConfig{}
		}
		return ollama.NewEngine(c.BaseURL, c.Model, time.Duration(c.TimeoutSecs)*time.Second), nil
	case "genai":
		if cfg.GenAI == nil {
			return nil, fmt.Errorf("embedder type genai requires a genai section")
		}
		return genai.NewEngine(ctx, os.Getenv(cfg.GenAI.APIKeyEnv), cfg.GenAI.Model, cfg.GenAI.TaskType)
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Type)
	}
}
