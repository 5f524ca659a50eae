package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func TestEmbedder_VectorsAreNormalized(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder(256)
	require.NoError(t, e.Prepare(ctx, []string{
		"This is document 1 about Python programming.",
		"This is document 2 about Java programming.",
	}))

	v, err := e.Embed(ctx, "Python programming")
	require.NoError(t, err)
	assert.Len(t, v, 256)
	assert.InDelta(t, 1.0, norm(v), 1e-9)
}

func TestEmbedder_RanksMatchingDocumentFirst(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder(DefaultDimension)
	docs := []string{
		"This is document 1 about Python programming.",
		"This is document 2 about Java programming.",
	}
	require.NoError(t, e.Prepare(ctx, docs))

	q, err := e.Embed(ctx, "What is document 1 about?")
	require.NoError(t, err)
	d1, _ := e.Embed(ctx, docs[0])
	d2, _ := e.Embed(ctx, docs[1])
	assert.Greater(t, cosine(q, d1), cosine(q, d2))
}

func TestEmbedder_UnknownTermsGiveZeroVector(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder(64)
	require.NoError(t, e.Prepare(ctx, []string{"alpha beta"}))

	v, err := e.Embed(ctx, "gamma delta")
	require.NoError(t, err)
	assert.Zero(t, norm(v))
}

func TestEmbedder_UnpreparedStillEmbeds(t *testing.T) {
	v, err := NewEmbedder(64).Embed(context.Background(), "kubernetes operators")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, norm(v), 1e-9)
}

func TestEmbedder_PrepareAccumulatesAndReset(t *testing.T) {
	ctx := context.Background()
	e := NewEmbedder(64)
	require.NoError(t, e.Prepare(ctx, []string{"alpha"}))
	require.NoError(t, e.Prepare(ctx, []string{"beta"}))
	assert.Equal(t, 2, e.docs)
	assert.Equal(t, 64, e.Dimension())

	e.Reset()
	assert.Zero(t, e.docs)
	assert.Error(t, e.Prepare(ctx, nil))
}
