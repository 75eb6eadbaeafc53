package usecase

import (
	"context"
	"fmt"

	"ragbench/internal/adapter/chunker"
	"ragbench/internal/adapter/fs"
	"ragbench/internal/adapter/index"
	"ragbench/internal/domain"
	"ragbench/internal/port"
)

// BuildUseCase constructs the index artifact from a document corpus:
// walk, chunk, embed, persist the three aligned collections.
type BuildUseCase struct {
	store     *index.BoltStore
	walker    *fs.Walker
	chunker   *chunker.ParagraphChunker
	embedder  port.Embedder
	batchSize int
}

// NewBuildUseCase creates a build use case.
func NewBuildUseCase(
	store *index.BoltStore,
	walker *fs.Walker,
	chunker *chunker.ParagraphChunker,
	embedder port.Embedder,
	batchSize int,
) *BuildUseCase {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &BuildUseCase{
		store:     store,
		walker:    walker,
		chunker:   chunker,
		embedder:  embedder,
		batchSize: batchSize,
	}
}

// BuildResult summarizes one index build.
type BuildResult struct {
	FilesIndexed     int
	FragmentsCreated int
	Errors           []string
}

// Build rebuilds the artifact from the corpus under root. The document
// id of every fragment is its file's path relative to root. progress,
// if non-nil, is called after each embedded batch with (done, total)
// fragment counts.
func (u *BuildUseCase) Build(ctx context.Context, root string, progress func(done, total int)) (*BuildResult, error) {
	result := &BuildResult{}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no corpus files matched under %s", root)
	}

	var fragments []domain.Fragment
	for _, file := range files {
		content, err := fs.ReadFile(file.Path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to read %s: %v", file.Path, err))
			continue
		}

		texts := u.chunker.Chunk(content)
		if len(texts) == 0 {
			continue
		}
		for _, text := range texts {
			fragments = append(fragments, domain.Fragment{
				ID:     len(fragments),
				DocID:  file.RelPath,
				Source: file.Path,
				Text:   text,
			})
		}
		result.FilesIndexed++
	}

	if len(fragments) == 0 {
		return nil, fmt.Errorf("corpus under %s produced no fragments", root)
	}

	// Rebuild wholesale so the aligned buckets cannot mix runs.
	if err := u.store.Clear(); err != nil {
		return nil, fmt.Errorf("failed to clear artifact: %w", err)
	}

	for start := 0; start < len(fragments); start += u.batchSize {
		end := start + u.batchSize
		if end > len(fragments) {
			end = len(fragments)
		}
		batch := fragments[start:end]

		texts := make([]string, len(batch))
		for i, frag := range batch {
			texts[i] = frag.Text
		}

		embeddings, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: corpus batch at %d: %v", domain.ErrEmbeddingFailed, start, err)
		}
		if err := u.store.PutBatch(batch, embeddings); err != nil {
			return nil, fmt.Errorf("failed to persist batch at %d: %w", start, err)
		}

		if progress != nil {
			progress(end, len(fragments))
		}
	}

	err = u.store.SetInfo(index.IndexInfo{
		Dimension: u.embedder.Dimension(),
		Model:     u.embedder.ModelName(),
		Count:     len(fragments),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record artifact info: %w", err)
	}

	result.FragmentsCreated = len(fragments)
	return result, nil
}
