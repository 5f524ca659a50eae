package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/vectorstore"
	"github.com/simiyu-dess/OnboardIQ/internal/vectorstore/storetest"
)

func TestStorage_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) vectorstore.Storage {
		s := NewStorage(filepath.Join(t.TempDir(), "db"))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestStorage_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "db")

	first := NewStorage(dir)
	require.NoError(t, first.Init(ctx, 2))
	require.NoError(t, first.Upsert(ctx, []domain.Fragment{{ID: "d:0", DocumentID: "d", Content: "persisted", Source: "d.txt"}}, [][]float64{{0.6, 0.8}}))
	require.NoError(t, first.Close())

	second := NewStorage(dir)
	defer second.Close()
	ok, err := second.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	n, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := second.Search(ctx, []float64{0.6, 0.8}, 4)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "persisted", res[0].Fragment.Content)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
	assert.Error(t, second.Init(ctx, 3), "dimension is fixed once the collection exists")
}

func TestStorage_DropRemovesDirectory(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "db")
	s := NewStorage(dir)
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Drop(ctx))

	_, err := os.Stat(dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStorage_SearchBeforeInit(t *testing.T) {
	s := NewStorage(filepath.Join(t.TempDir(), "none"))
	_, err := s.Search(context.Background(), []float64{1}, 1)
	assert.ErrorIs(t, err, vectorstore.ErrNotInitialized)
}

func TestVectorCodec(t *testing.T) {
	v := []float64{0.25, -1.5, 3}
	got, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
