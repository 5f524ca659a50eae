package domain

import (
	"context"
	"strconv"
)

// Document represents a single loaded source: a text file, or one page of a
// paginated file such as a PDF.
type Document struct {
	ID      string
	Path    string
	Content string
	Page    *int
}

// Fragment is a unit of retrieved text with provenance metadata.
// Fragments returned from a query are copies; callers may not mutate the
// stored collection through them.
type Fragment struct {
	ID             string
	DocumentID     string
	Content        string
	Source         string
	Page           *int
	Index          int
	RelevanceScore *float64
}

// PageLabel renders the page locator for display, "N/A" when absent.
func (f Fragment) PageLabel() string {
	if f.Page == nil {
		return "N/A"
	}
	return strconv.Itoa(*f.Page)
}

// ScoreLabel renders the similarity score for display, "N/A" when absent.
func (f Fragment) ScoreLabel() string {
	if f.RelevanceScore == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*f.RelevanceScore, 'f', 3, 64)
}

// SearchResult represents a matching fragment with a similarity score.
type SearchResult struct {
	Fragment Fragment
	Score    float64
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Chunker splits documents into fragments suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Fragment, error)
}

// GenerateRequest is a single call to the text-generation collaborator.
// Persona is the system-level role description the model should adopt.
type GenerateRequest struct {
	Prompt      string
	Persona     string
	Temperature float64
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Summarizer produces a brief summary of indexed fragments.
type Summarizer interface {
	Summarize(fragments []Fragment, maxSentences int) (string, error)
}
