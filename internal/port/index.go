package port

import "ragbench/internal/domain"

// FragmentIndex is a read-only nearest-neighbor index over embedded
// fragments. Implementations must be safe for concurrent use.
type FragmentIndex interface {
	// Search returns up to k fragments most similar to the query
	// embedding, ordered by score descending. Ties keep ascending
	// index position.
	Search(query []float32, k int) ([]domain.RetrievedFragment, error)

	// Dimension returns the embedding dimension of the index.
	Dimension() int

	// Count returns the number of fragments in the index.
	Count() int
}
