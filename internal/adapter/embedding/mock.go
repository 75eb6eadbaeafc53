package embedding

import "context"

// MockEmbedder produces deterministic embeddings for tests and offline
// runs.
type MockEmbedder struct {
	dimension int
}

// NewMockEmbedder creates a mock embedder with the given dimension.
func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

// Embed derives each vector from the text's rune values, normalized.
func (e *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dimension)
		for j, r := range text {
			v[j%e.dimension] += float32(r) / 1000.0
		}
		l2normalize(v)
		embeddings[i] = v
	}
	return embeddings, nil
}

// Dimension returns the embedding vector dimension.
func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

// ModelName returns the name of the embedding model.
func (e *MockEmbedder) ModelName() string {
	return "mock"
}
