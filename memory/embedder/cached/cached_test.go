package cached_test

import (
	"context"
	"errors"
	"testing"

	"github.com/scoutmind/scout-go-sdk/memory/embedder/cached"
	"github.com/scoutmind/scout-go-sdk/memory/embedder/mock"
)

type countingEmbedder struct {
	inner *mock.Embedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) Dimensions() int { return c.inner.Dimensions() }

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("model unavailable")
}

func (failingEmbedder) Dimensions() int { return 384 }

func TestEmbedPassesThrough(t *testing.T) {
	counting := &countingEmbedder{inner: mock.New()}
	e, err := cached.New(counting, nil)
	if err != nil {
		t.Fatalf("cached.New: %v", err)
	}
	defer e.Close()

	ctx := context.Background()
	a, err := e.Embed(ctx, "redis caching")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(a) != e.Dimensions() {
		t.Fatalf("len = %d, want %d", len(a), e.Dimensions())
	}
	if counting.calls != 1 {
		t.Errorf("inner calls = %d, want 1", counting.calls)
	}

	// Cache admission is asynchronous, so a repeat may or may not hit;
	// either way the vector must match.
	b, err := e.Embed(ctx, "redis caching")
	if err != nil {
		t.Fatalf("Embed repeat: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("repeat embed diverged from the first")
		}
	}
}

func TestEmbedPropagatesErrors(t *testing.T) {
	e, err := cached.New(failingEmbedder{}, nil)
	if err != nil {
		t.Fatalf("cached.New: %v", err)
	}
	defer e.Close()

	if _, err := e.Embed(context.Background(), "anything"); err == nil {
		t.Error("inner error swallowed")
	}
}

func TestDimensionsDelegates(t *testing.T) {
	e, err := cached.New(mock.New(), nil)
	if err != nil {
		t.Fatalf("cached.New: %v", err)
	}
	defer e.Close()
	if e.Dimensions() != 384 {
		t.Errorf("Dimensions = %d, want 384", e.Dimensions())
	}
}
