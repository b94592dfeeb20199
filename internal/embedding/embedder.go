// Package embedding turns catalog record text and chat queries into
// fixed-dimension vectors. The production path runs a local ONNX model;
// a deterministic mock covers builds without onnxruntime and tests.
package embedding

import (
	"context"
	"math"
)

// Embedder maps text to a dense vector of Dimensions() length.
// Implementations must be deterministic: the same input text yields
// the same vector, so cached and recomputed embeddings agree.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// normalizeL2 scales x in place to unit L2 norm. Zero vectors are left
// unchanged.
func normalizeL2(x []float32) {
	var sum float32
	for _, v := range x {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range x {
		x[i] *= norm
	}
}
