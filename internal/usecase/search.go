package usecase

import (
	"context"
	"fmt"

	"ragbench/internal/domain"
	"ragbench/internal/port"
)

// SearchOptions tunes one two-stage search.
type SearchOptions struct {
	TopKFragments   int // fragments retrieved in stage 1
	TopDocs         int // documents kept after aggregation
	FragmentsPerDoc int // fragments per document in the context
	MaxContextChars int // context character ceiling
}

// DefaultSearchOptions returns the standard retrieval knobs.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		TopKFragments:   30,
		TopDocs:         5,
		FragmentsPerDoc: 10,
		MaxContextChars: 12000,
	}
}

// TwoStageSearch composes the retrieval pipeline: embed the query,
// retrieve the top fragments, aggregate per-document scores, assemble a
// bounded context. It holds no per-call state; a single value is safe
// for concurrent searches over the shared index.
type TwoStageSearch struct {
	embedder port.Embedder
	index    port.FragmentIndex
	opts     SearchOptions
}

// NewTwoStageSearch creates a search pipeline over the given index.
func NewTwoStageSearch(embedder port.Embedder, index port.FragmentIndex, opts SearchOptions) *TwoStageSearch {
	if opts.TopKFragments <= 0 {
		opts.TopKFragments = DefaultSearchOptions().TopKFragments
	}
	if opts.TopDocs <= 0 {
		opts.TopDocs = DefaultSearchOptions().TopDocs
	}
	if opts.FragmentsPerDoc <= 0 {
		opts.FragmentsPerDoc = DefaultSearchOptions().FragmentsPerDoc
	}
	if opts.MaxContextChars < 0 {
		opts.MaxContextChars = 0
	}

	return &TwoStageSearch{
		embedder: embedder,
		index:    index,
		opts:     opts,
	}
}

// Search runs the two-stage pipeline for one query. Embedding failures
// propagate wrapped in ErrEmbeddingFailed with no retry; retries belong
// to the caller.
func (s *TwoStageSearch) Search(ctx context.Context, query string) (domain.SearchResult, error) {
	embeddings, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("%w: query %q: %v", domain.ErrEmbeddingFailed, query, err)
	}
	if len(embeddings) == 0 {
		return domain.SearchResult{}, fmt.Errorf("%w: query %q: provider returned no vector", domain.ErrEmbeddingFailed, query)
	}

	retrieved, err := s.index.Search(embeddings[0], s.opts.TopKFragments)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("vector search failed for query %q: %w", query, err)
	}

	ranking := AggregateDocuments(retrieved)
	contextText, included := AssembleContext(ranking, s.opts.TopDocs, s.opts.FragmentsPerDoc, s.opts.MaxContextChars)

	return domain.SearchResult{
		Context:      contextText,
		ContextChars: len(contextText),
		Ranking:      ranking,
		Included:     included,
	}, nil
}

// Options returns the pipeline's effective knobs.
func (s *TwoStageSearch) Options() SearchOptions {
	return s.opts
}
