package generation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simiyu-dess/OnboardIQ/internal/config"
	"github.com/simiyu-dess/OnboardIQ/internal/generation/ollama"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	g, err := New(ctx, config.Default().Generator)
	require.NoError(t, err)
	c, ok := g.(*ollama.Client)
	require.True(t, ok)
	assert.Equal(t, "llama3.2:latest", c.Model())

	_, err = New(ctx, config.GeneratorConfig{Type: "gpt5"})
	assert.ErrorContains(t, err, "unknown generator type")

	t.Setenv("ONBOARDIQ_TEST_EMPTY", "")
	_, err = New(ctx, config.GeneratorConfig{Type: "genai", GenAI: &config.GenAIConfig{APIKeyEnv: "ONBOARDIQ_TEST_EMPTY"}})
	assert.Error(t, err)
	_, err = New(ctx, config.GeneratorConfig{Type: "openai", OpenAI: &config.OpenAIConfig{APIKeyEnv: "ONBOARDIQ_TEST_EMPTY"}})
	assert.Error(t, err)
}
