package genai

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

// Engine generates embeddings using Google's Gemini API.
type Engine struct {
	client    *genai.Client
	model     string
	taskType  string
	mu        sync.Mutex
	dimension int
}

// NewEngine creates a new GenAI embedding engine.
func NewEngine(ctx context.Context, apiKey, model, taskType string) (*Engine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Engine{
		client:   client,
		model:    model,
		taskType: parseTaskType(taskType),
	}, nil
}

// parseTaskType maps a configured task type onto one the embedding API
// accepts, defaulting to RETRIEVAL_DOCUMENT.
func parseTaskType(taskType string) string {
	switch taskType {
	case "SEMANTIC_SIMILARITY", "RETRIEVAL_QUERY", "QUESTION_ANSWERING", "FACT_VERIFICATION":
		return taskType
	default:
		return "RETRIEVAL_DOCUMENT"
	}
}

// Name returns the engine name.
func (e *Engine) Name() string { return "genai:" + e.model }

// Prepare is a no-op for a hosted model.
func (e *Engine) Prepare(context.Context, []string) error { return nil }

// Dimension returns the dimensionality seen on the first response.
func (e *Engine) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dimension
}

// Embed generates an embedding for a single text.
func (e *Engine) Embed(ctx context.Context, text string) ([]float64, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: e.taskType,
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	values := result.Embeddings[0].Values
	vec := make([]float64, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}

	e.mu.Lock()
	if e.dimension == 0 {
		e.dimension = len(vec)
	}
	e.mu.Unlock()
	return vec, nil
}
