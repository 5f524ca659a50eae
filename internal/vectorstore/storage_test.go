package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Zero(t, Cosine([]float64{0, 0}, []float64{1, 1}))
}

func TestRank(t *testing.T) {
	scores := []float64{0.1, 0.9, 0.5, 0.9}
	assert.Equal(t, []int{1, 3}, Rank(scores, 2))
	assert.Equal(t, []int{1, 3, 2, 0}, Rank(scores, 10))
	assert.Len(t, Rank(make([]float64, 10), 0), DefaultTopK)
}
