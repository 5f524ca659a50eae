// Package fragstore owns the lifecycle of the fragment collection: indexing,
// similarity retrieval, counting and clearing. One RWMutex guards the
// collection so that Index and Clear never overlap a retrieval.
package fragstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/logging"
	"github.com/simiyu-dess/OnboardIQ/internal/vectorstore"
)

// resetter is implemented by embedders whose statistics depend on the corpus.
type resetter interface {
	Reset()
}

// Store wraps an embedder and a vector store.
type Store struct {
	mu       sync.RWMutex
	embedder domain.Embedder
	storage  vectorstore.Storage
	topK     int
	log      *zap.Logger
}

// New creates a fragment store returning topK fragments per retrieval.
func New(embedder domain.Embedder, storage vectorstore.Storage, topK int, log *zap.Logger) *Store {
	if topK <= 0 {
		topK = vectorstore.DefaultTopK
	}
	return &Store{
		embedder: embedder,
		storage:  storage,
		topK:     topK,
		log:      logging.OrNop(log).Named("fragstore"),
	}
}

// TopK reports how many fragments Retrieve returns at most.
func (s *Store) TopK() int { return s.topK }

// Index embeds and stores fragments, returning how many were stored.
// Fragments without an ID are given a unique one. When clearExisting is set
// the collection is dropped first; if a later step fails the collection stays
// empty.
func (s *Store) Index(ctx context.Context, fragments []domain.Fragment, clearExisting bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if clearExisting {
		if err := s.clearLocked(ctx); err != nil {
			return 0, err
		}
	}
	if len(fragments) == 0 {
		return 0, nil
	}
	fragments = withIDs(fragments)

	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Content
	}
	if err := s.embedder.Prepare(ctx, texts); err != nil {
		return 0, fmt.Errorf("%w: prepare embedder: %w", domain.ErrIngestion, err)
	}
	vectors := make([][]float64, len(fragments))
	for i, f := range fragments {
		vec, err := s.embedder.Embed(ctx, f.Content)
		if err != nil {
			return 0, fmt.Errorf("%w: embed fragment %s from %s: %w", domain.ErrIngestion, f.ID, f.Source, err)
		}
		vectors[i] = vec
	}
	if err := s.storage.Init(ctx, len(vectors[0])); err != nil {
		return 0, fmt.Errorf("%w: init collection: %w", domain.ErrIngestion, err)
	}
	if err := s.storage.Upsert(ctx, fragments, vectors); err != nil {
		return 0, fmt.Errorf("%w: store fragments: %w", domain.ErrIngestion, err)
	}
	s.log.Info("indexed fragments",
		zap.Int("count", len(fragments)),
		zap.Bool("cleared", clearExisting),
		zap.String("embedder", s.embedder.Name()))
	return len(fragments), nil
}

// Retrieve returns the fragments most similar to query, best first.
func (s *Store) Retrieve(ctx context.Context, query string) ([]domain.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retrieveLocked(ctx, query)
}

// WithRetrieved retrieves fragments for query and runs fn while still holding
// the read lock, so the collection cannot change until fn returns.
func (s *Store) WithRetrieved(ctx context.Context, query string, fn func([]domain.Fragment) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	frags, err := s.retrieveLocked(ctx, query)
	if err != nil {
		return err
	}
	return fn(frags)
}

func (s *Store) retrieveLocked(ctx context.Context, query string) ([]domain.Fragment, error) {
	ok, err := s.storage.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	if !ok {
		return nil, domain.ErrNotIndexed
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrStore, err)
	}
	results, err := s.storage.Search(ctx, vec, s.topK)
	if err != nil {
		if errors.Is(err, vectorstore.ErrNotInitialized) {
			return nil, domain.ErrNotIndexed
		}
		return nil, fmt.Errorf("%w: search: %w", domain.ErrStore, err)
	}
	frags := make([]domain.Fragment, len(results))
	for i, r := range results {
		f := r.Fragment
		score := r.Score
		f.RelevanceScore = &score
		if f.Page != nil {
			p := *f.Page
			f.Page = &p
		}
		frags[i] = f
	}
	s.log.Debug("retrieved fragments", zap.String("query", query), zap.Int("count", len(frags)))
	return frags, nil
}

// withIDs copies fragments, filling each empty ID with the document ID (or
// source) and a random suffix.
func withIDs(fragments []domain.Fragment) []domain.Fragment {
	out := make([]domain.Fragment, len(fragments))
	copy(out, fragments)
	for i := range out {
		if out[i].ID != "" {
			continue
		}
		prefix := out[i].DocumentID
		if prefix == "" {
			prefix = out[i].Source
		}
		if prefix == "" {
			prefix = "fragment"
		}
		out[i].ID = prefix + ":" + uuid.NewString()
	}
	return out
}

// Count returns the number of stored fragments, 0 when no collection exists.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.storage.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %w", domain.ErrStore, err)
	}
	return n, nil
}

// Clear destroys the collection. It succeeds when nothing is stored.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) error {
	if err := s.storage.Drop(ctx); err != nil {
		return fmt.Errorf("%w: drop collection: %w", domain.ErrStore, err)
	}
	if r, ok := s.embedder.(resetter); ok {
		r.Reset()
	}
	s.log.Info("collection cleared")
	return nil
}
