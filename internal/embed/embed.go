// Package embed turns chunk text into vectors for similarity search.
package embed

import (
	"context"
	"math"
)

// Dimensions is the vector width produced by every embedder in this
// package. The store persists this so mismatched vectors are rejected.
const Dimensions = 256

// Embedder converts text into fixed-width vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

// normalize scales v to unit length. A zero vector is returned as-is.
func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = float32(float64(val) / magnitude)
	}
	return out
}
