package fragstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/embedding/tfidf"
	"github.com/simiyu-dess/OnboardIQ/internal/vectorstore"
	"github.com/simiyu-dess/OnboardIQ/internal/vectorstore/memory"
	"github.com/simiyu-dess/OnboardIQ/internal/vectorstore/sqlite"
)

var errUnreachable = errors.New("connection refused")

// flakyEmbedder fails every Embed call after the first okCalls.
type flakyEmbedder struct {
	*tfidf.Embedder
	okCalls int
	calls   int
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.calls++
	if f.calls > f.okCalls {
		return nil, errUnreachable
	}
	return f.Embedder.Embed(ctx, text)
}

func fragments(contents ...string) []domain.Fragment {
	out := make([]domain.Fragment, len(contents))
	for i, c := range contents {
		out[i] = domain.Fragment{ID: string(rune('a'+i)) + ":0", DocumentID: string(rune('a' + i)), Content: c, Source: "doc.txt"}
	}
	return out
}

func newStore(t *testing.T) *Store {
	return New(tfidf.NewEmbedder(256), memory.NewStorage(), 4, zaptest.NewLogger(t))
}

func TestStore_RetrieveBeforeIndex(t *testing.T) {
	_, err := newStore(t).Retrieve(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrNotIndexed)
}

func TestStore_IndexRetrieveCount(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	n, err := s.Index(ctx, fragments(
		"This is document 1 about Python programming.",
		"This is document 2 about Java programming.",
	), true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	frags, err := s.Retrieve(ctx, "Python")
	require.NoError(t, err)
	require.NotEmpty(t, frags)
	assert.Contains(t, frags[0].Content, "Python")
	require.NotNil(t, frags[0].RelevanceScore)
	assert.Greater(t, *frags[0].RelevanceScore, 0.0)
}

func TestStore_AppendKeepsExisting(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.Index(ctx, fragments("first document"), true)
	require.NoError(t, err)

	more := fragments("second document", "third document")
	more[0].ID, more[1].ID = "x:0", "y:0"
	_, err = s.Index(ctx, more, false)
	require.NoError(t, err)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.Index(ctx, fragments("some text"), true)
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = s.Retrieve(ctx, "text")
	assert.ErrorIs(t, err, domain.ErrNotIndexed)
}

func TestStore_EmbeddingFailureAfterClearLeavesStoreEmpty(t *testing.T) {
	ctx := context.Background()
	emb := &flakyEmbedder{Embedder: tfidf.NewEmbedder(256), okCalls: 1}
	s := New(emb, memory.NewStorage(), 4, nil)

	_, err := s.Index(ctx, fragments("kept"), true)
	require.NoError(t, err)

	_, err = s.Index(ctx, fragments("new one", "new two"), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIngestion)
	assert.ErrorIs(t, err, errUnreachable)
	assert.Equal(t, 2, emb.calls, "failed embeddings are not retried")

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_IndexWaitsForHeldRetrieval(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.Index(ctx, fragments("alpha beta"), true)
	require.NoError(t, err)

	inside := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.WithRetrieved(ctx, "alpha", func([]domain.Fragment) error {
			close(inside)
			<-release
			return nil
		})
	}()
	<-inside

	cleared := make(chan struct{})
	go func() {
		_ = s.Clear(ctx)
		close(cleared)
	}()

	select {
	case <-cleared:
		t.Fatal("Clear ran while a retrieval still held the collection")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	wg.Wait()
	<-cleared
}

func TestStore_FragmentsWithoutIDsAreKeptApart(t *testing.T) {
	backends := map[string]func(t *testing.T) vectorstore.Storage{
		"memory": func(*testing.T) vectorstore.Storage { return memory.NewStorage() },
		"sqlite": func(t *testing.T) vectorstore.Storage {
			s := sqlite.NewStorage(filepath.Join(t.TempDir(), "db"))
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(tfidf.NewEmbedder(256), open(t), 4, zaptest.NewLogger(t))

			in := []domain.Fragment{
				{Content: "Onboarding starts on Monday.", Source: "handbook.txt"},
				{Content: "Laptops are issued by IT.", Source: "handbook.txt"},
				{Content: "Payroll runs monthly."},
			}
			n, err := s.Index(ctx, in, true)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			// Appending more ID-less fragments from the same source adds to the set.
			_, err = s.Index(ctx, []domain.Fragment{{Content: "Badges are collected at reception.", Source: "handbook.txt"}}, false)
			require.NoError(t, err)

			count, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, count)
			assert.Empty(t, in[0].ID, "caller's fragments are not modified")

			frags, err := s.Retrieve(ctx, "laptops issued")
			require.NoError(t, err)
			require.NotEmpty(t, frags)
			assert.True(t, strings.HasPrefix(frags[0].ID, "handbook.txt:"), frags[0].ID)
		})
	}
}

func TestStore_QueryEmbeddingFailureIsStoreError(t *testing.T) {
	ctx := context.Background()
	emb := &flakyEmbedder{Embedder: tfidf.NewEmbedder(256), okCalls: 1}
	s := New(emb, memory.NewStorage(), 4, nil)
	_, err := s.Index(ctx, fragments("indexed text"), true)
	require.NoError(t, err)

	_, err = s.Retrieve(ctx, "text")
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.ErrorIs(t, err, errUnreachable)
}
