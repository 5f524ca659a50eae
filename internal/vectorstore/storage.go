package vectorstore

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
)

// DefaultTopK is used when a search asks for a non-positive number of results.
const DefaultTopK = 4

// ErrNotInitialized is returned by Upsert and Search before Init created the collection.
var ErrNotInitialized = errors.New("collection not initialized")

// Storage persists vectors and supports similarity search.
// Init creates the collection if it is missing and keeps existing contents.
// Drop removes the collection entirely and is safe to call when none exists.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, fragments []domain.Fragment, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error)
	Count(ctx context.Context) (int, error)
	Exists(ctx context.Context) (bool, error)
	Drop(ctx context.Context) error
}

// Cosine returns the cosine similarity of a and b, 0 when either is a zero vector.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank returns the indexes of the topK highest scores, best first.
// Ties keep insertion order.
func Rank(scores []float64, topK int) []int {
	if topK <= 0 {
		topK = DefaultTopK
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool { return scores[idxs[i]] > scores[idxs[j]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	return idxs[:topK]
}
