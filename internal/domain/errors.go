package domain

import "errors"

var (
	// ErrIndexUnavailable means the index artifact could not be loaded.
	// No query can proceed.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrDimensionMismatch means a query embedding's length does not
	// match the index dimension. Index/config drift; never padded or
	// truncated silently.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingFailed means the embedding provider failed for this
	// query. Recoverable by the caller; the core does not retry.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrInconsistentIndex means the index's aligned collections
	// (embeddings, metadata, texts) disagree.
	ErrInconsistentIndex = errors.New("inconsistent index")
)
