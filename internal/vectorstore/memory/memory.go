package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/vectorstore"
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	exists    bool
	dimension int
	vectors   [][]float64
	fragments []domain.Fragment
	index     map[string]int
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exists {
		if s.dimension != dimension {
			return fmt.Errorf("collection has dimension %d, got %d", s.dimension, dimension)
		}
		return nil
	}
	s.exists = true
	s.dimension = dimension
	s.index = make(map[string]int)
	return nil
}

// Upsert replaces fragments whose ID is already stored and appends the rest.
func (s *Storage) Upsert(_ context.Context, fragments []domain.Fragment, vectors [][]float64) error {
	if len(fragments) != len(vectors) {
		return errors.New("fragments and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		return vectorstore.ErrNotInitialized
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i, f := range fragments {
		if j, ok := s.index[f.ID]; ok && f.ID != "" {
			s.fragments[j] = f
			s.vectors[j] = vectors[i]
			continue
		}
		s.index[f.ID] = len(s.fragments)
		s.fragments = append(s.fragments, f)
		s.vectors = append(s.vectors, vectors[i])
	}
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return nil, vectorstore.ErrNotInitialized
	}
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = vectorstore.Cosine(s.vectors[i], vector)
	}
	idxs := vectorstore.Rank(scores, topK)
	results := make([]domain.SearchResult, 0, len(idxs))
	for _, j := range idxs {
		results = append(results, domain.SearchResult{Fragment: s.fragments[j], Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fragments), nil
}

func (s *Storage) Exists(context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exists, nil
}

func (s *Storage) Drop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists = false
	s.dimension = 0
	s.vectors = nil
	s.fragments = nil
	s.index = nil
	return nil
}
