package embedding

import (
	"context"
	"math"
)

// MockEmbedder derives a unit vector from a hash of the input text. It
// stands in for the ONNX model in tests and in builds without the
// onnxruntime library: identical texts collapse to identical vectors,
// so retrieval ranking stays stable even though the geometry carries
// no real meaning.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns a hash-based embedder of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed produces a deterministic unit-length vector for text.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := HashString(text)
	vec := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		vec[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	normalizeL2(vec)
	return vec, nil
}

// EmbedBatch embeds each text in turn.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// Dimensions returns the configured vector length.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the mock holds no resources.
func (e *MockEmbedder) Close() error {
	return nil
}
