package index

import (
	"fmt"
	"math"
	"sort"

	"ragbench/internal/domain"
)

// MemoryIndex is an immutable in-memory fragment index. Fragments and
// embeddings are aligned slices validated at construction, after which
// the index is read-only and safe for concurrent searches.
// Uses brute-force search for simplicity; can be replaced with HNSW for
// larger corpora.
type MemoryIndex struct {
	fragments  []domain.Fragment
	embeddings [][]float32
	dimension  int
}

// NewMemoryIndex builds an index over aligned fragment and embedding
// slices. fragments[i] must describe embeddings[i].
func NewMemoryIndex(fragments []domain.Fragment, embeddings [][]float32) (*MemoryIndex, error) {
	if len(fragments) != len(embeddings) {
		return nil, fmt.Errorf("%w: %d fragments vs %d embeddings",
			domain.ErrInconsistentIndex, len(fragments), len(embeddings))
	}
	if len(fragments) == 0 {
		return nil, fmt.Errorf("%w: index is empty", domain.ErrIndexUnavailable)
	}

	dim := len(embeddings[0])
	for i, emb := range embeddings {
		if len(emb) != dim {
			return nil, fmt.Errorf("%w: embedding %d has dimension %d, expected %d",
				domain.ErrInconsistentIndex, i, len(emb), dim)
		}
		if fragments[i].Text == "" {
			return nil, fmt.Errorf("%w: fragment %d has empty text",
				domain.ErrInconsistentIndex, i)
		}
	}

	return &MemoryIndex{
		fragments:  fragments,
		embeddings: embeddings,
		dimension:  dim,
	}, nil
}

// Search returns up to k fragments by cosine similarity to the query,
// ordered by score descending. Ties keep ascending index position.
func (m *MemoryIndex) Search(query []float32, k int) ([]domain.RetrievedFragment, error) {
	if len(query) != m.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			domain.ErrDimensionMismatch, len(query), m.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	scored := make([]domain.RetrievedFragment, len(m.fragments))
	for i := range m.fragments {
		scored[i] = domain.RetrievedFragment{
			Fragment: m.fragments[i],
			Score:    cosineSimilarity(query, m.embeddings[i]),
		}
	}

	// Stable sort over index order makes ties deterministic.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Dimension returns the embedding dimension of the index.
func (m *MemoryIndex) Dimension() int {
	return m.dimension
}

// Count returns the number of fragments in the index.
func (m *MemoryIndex) Count() int {
	return len(m.fragments)
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
