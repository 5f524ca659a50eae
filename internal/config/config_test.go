package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestDefault_Values(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "ollama", cfg.Generator.Type)
	assert.Equal(t, "http://localhost:11434", cfg.Generator.Ollama.BaseURL)
	assert.Equal(t, 300, cfg.Generator.Ollama.TimeoutSecs)
	assert.Equal(t, "sqlite", cfg.VectorStore.Type)
	assert.Equal(t, "./onboardiq_db", cfg.VectorStore.SQLite.Dir)
	assert.Equal(t, 4, cfg.Retrieval.TopK)
	require.NotNil(t, cfg.Relevance.Threshold)
	assert.InDelta(t, 0.3, *cfg.Relevance.Threshold, 1e-9)
	assert.Equal(t, 3, cfg.Relevance.MinKeyTermLength)
	assert.InDelta(t, 0.3, cfg.Pipeline.Temperature, 1e-9)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 200, cfg.Chunker.ChunkOverlap)
	assert.Contains(t, cfg.Workflow.AnalyticalKeywords, "recommend")
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedder:
  type: openai
generator:
  type: genai
vector_store:
  type: qdrant
  qdrant:
    url: http://localhost:6333
workflow:
  analytical_keywords: [assess]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "gemini-2.5-flash", cfg.Generator.GenAI.Model)
	assert.Equal(t, "onboardiq", cfg.VectorStore.Qdrant.Collection)
	assert.Equal(t, 15, cfg.VectorStore.Qdrant.TimeoutSecs)
	assert.Equal(t, []string{"assess"}, cfg.Workflow.AnalyticalKeywords)
	assert.Nil(t, cfg.VectorStore.SQLite)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retrieval: [oops"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Default()
	want.Retrieval.TopK = 8
	threshold := 0.5
	want.Relevance.Threshold = &threshold

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ExplicitZeroThresholdIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("relevance:\n  threshold: 0\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Relevance.Threshold)
	assert.Zero(t, *cfg.Relevance.Threshold)
	assert.Equal(t, 3, cfg.Relevance.MinKeyTermLength)
}
