package mock_test

import (
	"context"
	"math"
	"testing"

	"github.com/scoutmind/scout-go-sdk/memory"
	"github.com/scoutmind/scout-go-sdk/memory/embedder/mock"
)

func TestEmbedDeterministic(t *testing.T) {
	e := mock.New()
	ctx := context.Background()

	a, err := e.Embed(ctx, "redis caching performance")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := e.Embed(ctx, "redis caching performance")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(a) != e.Dimensions() {
		t.Fatalf("len = %d, want %d", len(a), e.Dimensions())
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same text produced different vectors at %d", i)
		}
	}

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-3 {
		t.Errorf("vector norm = %v, want ~1", math.Sqrt(norm))
	}
}

func TestEmbedSimilarityTracksVocabulary(t *testing.T) {
	e := mock.New()
	ctx := context.Background()

	embed := func(text string) []float32 {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			t.Fatalf("Embed(%q): %v", text, err)
		}
		return vec
	}

	base := embed("redis caching performance")
	related := embed("redis caching throughput")
	unrelated := embed("svelte component compiler")

	simRelated := memory.CosineSimilarity(base, related)
	simUnrelated := memory.CosineSimilarity(base, unrelated)
	if simRelated <= simUnrelated {
		t.Errorf("shared vocabulary did not raise similarity: related %v, unrelated %v", simRelated, simUnrelated)
	}
}

func TestEmbedEmptyText(t *testing.T) {
	e := mock.New()
	vec, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed(\"\"): %v", err)
	}
	if len(vec) != e.Dimensions() {
		t.Errorf("len = %d, want %d", len(vec), e.Dimensions())
	}
}
