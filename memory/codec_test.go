package memory_test

import (
	"errors"
	"math"
	"testing"

	"github.com/scoutmind/scout-go-sdk/memory"
)

func TestVectorCodecRoundtrip(t *testing.T) {
	codec := memory.NewVectorCodec(4)
	vec := []float32{0.1, -2.5, 3.75, 0}

	raw, err := codec.Encode(vec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(raw) != 16 {
		t.Fatalf("encoded length = %d, want 16", len(raw))
	}

	got, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("roundtrip[%d] = %v, want %v", i, got[i], vec[i])
		}
	}
}

func TestVectorCodecDimensionMismatch(t *testing.T) {
	codec := memory.NewVectorCodec(3)

	if _, err := codec.Encode([]float32{1, 2}); !errors.Is(err, memory.ErrDimensionMismatch) {
		t.Errorf("Encode wrong dims: err = %v, want ErrDimensionMismatch", err)
	}
	if _, err := codec.Decode(make([]byte, 8)); !errors.Is(err, memory.ErrDimensionMismatch) {
		t.Errorf("Decode wrong length: err = %v, want ErrDimensionMismatch", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	if sim := memory.CosineSimilarity(a, a); math.Abs(sim-1) > 1e-9 {
		t.Errorf("self similarity = %v, want 1", sim)
	}
	if sim := memory.CosineSimilarity(a, []float32{0, 1, 0}); math.Abs(sim) > 1e-9 {
		t.Errorf("orthogonal similarity = %v, want 0", sim)
	}
	if sim := memory.CosineSimilarity(a, []float32{1, 0}); sim != 0 {
		t.Errorf("mismatched dims similarity = %v, want 0", sim)
	}
	if sim := memory.CosineSimilarity(a, []float32{0, 0, 0}); sim != 0 {
		t.Errorf("zero vector similarity = %v, want 0", sim)
	}
}
