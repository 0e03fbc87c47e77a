// Package mock provides a deterministic embedder for tests. Vectors are
// built per word from hash-seeded pseudo-random values and summed, so texts
// sharing vocabulary land closer together in cosine space while unrelated
// texts stay near-orthogonal. No model files, no network.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Embedder generates deterministic embeddings from text content.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder matching the all-MiniLM-L6-v2 width.
func New() *Embedder {
	return &Embedder{dimensions: 384}
}

// Embed sums per-word pseudo-random vectors and normalizes the result.
// The same text always yields the same vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		words = []string{""}
	}

	sum := make([]float32, e.dimensions)
	for _, word := range words {
		wordVector(word, sum)
	}

	return normalize(sum), nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// wordVector accumulates a word's LCG-generated components into dst.
func wordVector(word string, dst []float32) {
	h := fnv.New64a()
	h.Write([]byte(word))
	seed := h.Sum64()

	for i := range dst {
		seed = seed*6364136223846793005 + 1442695040888963407
		dst[i] += float32(int64(seed)) / float32(math.MaxInt64)
	}
}

func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}
