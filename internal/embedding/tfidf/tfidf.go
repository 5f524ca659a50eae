package tfidf

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"sync"
)

// DefaultDimension is the size of the hashed feature space.
const DefaultDimension = 1024

// Embedder implements a TF-IDF vectorizer over a hashed, fixed-size feature
// space. Document frequencies accumulate across Prepare calls, so a
// collection can grow without the vector dimension changing. Before any
// Prepare every known term weighs the same.
type Embedder struct {
	mu           sync.RWMutex
	df           map[string]int
	docs         int
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewEmbedder creates a TF-IDF embedder with the given dimension.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{
		df:           make(map[string]int),
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Prepare folds the corpus into the document-frequency table.
func (e *Embedder) Prepare(_ context.Context, corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			e.df[tok]++
		}
	}
	e.docs += len(corpus)
	return nil
}

// Reset forgets all document frequencies.
func (e *Embedder) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.df = make(map[string]int)
	e.docs = 0
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the TF-IDF embedding for the given text.
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	vec := make([]float64, e.dimension)
	tf := make(map[string]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if e.docs > 0 {
			if _, known := e.df[tok]; !known {
				continue
			}
		}
		tf[tok]++
		total++
	}
	if total == 0 {
		return vec, nil
	}
	n := float64(e.docs)
	for tok, count := range tf {
		idf := 1.0
		if e.docs > 0 {
			// Smoothed IDF
			idf = math.Log((1+n)/(1+float64(e.df[tok]))) + 1.0
		}
		vec[bucket(tok, e.dimension)] += float64(count) / float64(total) * idf
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func bucket(term string, dimension int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(term))
	return int(h.Sum32() % uint32(dimension))
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"what", "who", "whom", "which", "how", "why", "when", "where", "does", "do", "did",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
