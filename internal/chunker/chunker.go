package chunker

import (
	"fmt"

	"github.com/simiyu-dess/OnboardIQ/internal/config"
	"github.com/simiyu-dess/OnboardIQ/internal/domain"
)

// New builds the chunker selected by cfg.Type.
func New(cfg config.ChunkerConfig) (domain.Chunker, error) {
	switch cfg.Type {
	case "", "recursive":
		return NewRecursiveChunker(cfg.ChunkSize, cfg.ChunkOverlap), nil
	case "sentence":
		return NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences), nil
	default:
		return nil, fmt.Errorf("unknown chunker type %q", cfg.Type)
	}
}
