package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when an embedding's dimension does not
// match the store's configured index dimension. Fatal for the single encode
// or decode call only; callers fall back to the non-semantic path.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// VectorCodec is the binary boundary between float32 embedding vectors and
// their stored byte form. The dimension is asserted once here rather than
// at every call site.
type VectorCodec struct {
	dim int
}

// NewVectorCodec returns a codec for fixed-width vectors of the given
// dimension.
func NewVectorCodec(dim int) *VectorCodec {
	return &VectorCodec{dim: dim}
}

// Dimensions returns the configured vector width.
func (c *VectorCodec) Dimensions() int {
	return c.dim
}

// Encode serializes a vector to little-endian float32 bytes.
func (c *VectorCodec) Encode(vec []float32) ([]byte, error) {
	if len(vec) != c.dim {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, c.dim, len(vec))
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf, nil
}

// Decode deserializes stored bytes back into a vector.
func (c *VectorCodec) Decode(data []byte) ([]float32, error) {
	if len(data) != 4*c.dim {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrDimensionMismatch, 4*c.dim, len(data))
	}
	vec := make([]float32, c.dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

// CosineSimilarity computes the cosine similarity of two vectors.
// Returns 0 when either vector has zero norm or dimensions differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
