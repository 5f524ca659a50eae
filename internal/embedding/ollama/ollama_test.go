package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "hello world", req.Prompt)
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.5, 0.5, 0.5, 0.5}})
	}))
	defer srv.Close()

	e := NewEngine(srv.URL, "nomic-embed-text", time.Second)
	assert.Equal(t, "ollama:nomic-embed-text", e.Name())

	v, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Len(t, v, 4)
	assert.Equal(t, 4, e.Dimension())
}

func TestEngine_EmbedErrors(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer notFound.Close()

	_, err := NewEngine(notFound.URL, "missing", time.Second).Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "model not found")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[]}`))
	}))
	defer empty.Close()

	_, err = NewEngine(empty.URL, "m", time.Second).Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "empty embedding")
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine("", "", 0)
	assert.Equal(t, "http://localhost:11434", e.endpoint)
	assert.Equal(t, "llama3.2:latest", e.model)
	assert.Equal(t, 30*time.Second, e.client.Timeout)
}
