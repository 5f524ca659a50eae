// Package storetest holds behaviour checks shared by every vectorstore.Storage backend.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/vectorstore"
)

// Run exercises the Storage contract against stores built by newStore.
// Each subtest receives a fresh, empty store.
func Run(t *testing.T, newStore func(t *testing.T) vectorstore.Storage) {
	t.Helper()
	ctx := context.Background()
	page := 2
	frags := []domain.Fragment{
		{ID: "a:0", DocumentID: "a", Content: "alpha", Source: "a.txt", Page: &page, Index: 0},
		{ID: "b:0", DocumentID: "b", Content: "beta", Source: "b.txt", Index: 0},
		{ID: "c:0", DocumentID: "c", Content: "gamma", Source: "c.txt", Index: 0},
	}
	vecs := [][]float64{{1, 0, 0}, {0, 1, 0}, {0.7, 0.7, 0}}

	t.Run("missing collection", func(t *testing.T) {
		s := newStore(t)
		ok, err := s.Exists(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.NoError(t, s.Drop(ctx), "dropping a missing collection is safe")
	})

	t.Run("search ranks by similarity", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Init(ctx, 3))
		require.NoError(t, s.Upsert(ctx, frags, vecs))

		res, err := s.Search(ctx, []float64{1, 0.1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, "a:0", res[0].Fragment.ID)
		assert.Equal(t, "c:0", res[1].Fragment.ID)
		assert.Greater(t, res[0].Score, res[1].Score)
		assert.Equal(t, "alpha", res[0].Fragment.Content)
		assert.Equal(t, "a.txt", res[0].Fragment.Source)
		require.NotNil(t, res[0].Fragment.Page)
		assert.Equal(t, 2, *res[0].Fragment.Page)
		assert.Nil(t, res[1].Fragment.Page)
	})

	t.Run("init keeps existing contents", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Init(ctx, 3))
		require.NoError(t, s.Upsert(ctx, frags[:2], vecs[:2]))
		require.NoError(t, s.Init(ctx, 3))
		require.NoError(t, s.Upsert(ctx, frags[2:], vecs[2:]))
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("upsert replaces same id", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Init(ctx, 3))
		require.NoError(t, s.Upsert(ctx, frags, vecs))
		updated := frags[0]
		updated.Content = "alpha v2"
		require.NoError(t, s.Upsert(ctx, []domain.Fragment{updated}, [][]float64{{1, 0, 0}}))

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		res, err := s.Search(ctx, []float64{1, 0, 0}, 1)
		require.NoError(t, err)
		assert.Equal(t, "alpha v2", res[0].Fragment.Content)
	})

	t.Run("drop removes collection", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Init(ctx, 3))
		require.NoError(t, s.Upsert(ctx, frags, vecs))
		require.NoError(t, s.Drop(ctx))

		ok, err := s.Exists(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		require.NoError(t, s.Drop(ctx))
	})

	t.Run("length mismatch", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Init(ctx, 3))
		assert.Error(t, s.Upsert(ctx, frags, vecs[:1]))
	})
}
