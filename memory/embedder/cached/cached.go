// Package cached wraps any embedder with an in-process ristretto cache.
// Embedding the same text twice is common in this system: a topic is
// embedded during context lookup and again during the post-verdict write,
// and reinforced patterns re-embed unchanged descriptions. The cache turns
// those repeats into map hits.
package cached

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/scoutmind/scout-go-sdk/memory"
)

// Config holds cache sizing.
type Config struct {
	// MaxCostBytes bounds the cache by approximate vector size (default 64MB).
	MaxCostBytes int64

	// NumCounters sizes ristretto's frequency sketch (default 100k).
	NumCounters int64
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = &Config{
	MaxCostBytes: 64 << 20,
	NumCounters:  100_000,
}

// Embedder decorates an inner embedder with a lookup cache.
type Embedder struct {
	inner memory.Embedder
	cache *ristretto.Cache
}

// New wraps inner with a cache.
func New(inner memory.Embedder, config *Config) (*Embedder, error) {
	if config == nil {
		config = DefaultConfig
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: config.NumCounters,
		MaxCost:     config.MaxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return &Embedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, computing and storing it on miss.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}
	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, vec, int64(4*len(vec)))
	return vec, nil
}

// Dimensions returns the inner embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Close releases the cache.
func (e *Embedder) Close() {
	e.cache.Close()
}
