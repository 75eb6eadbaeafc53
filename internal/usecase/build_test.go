package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ragbench/internal/adapter/chunker"
	"ragbench/internal/adapter/embedding"
	"ragbench/internal/adapter/fs"
	"ragbench/internal/adapter/index"
)

func TestBuildIndex(t *testing.T) {
	corpus := t.TempDir()
	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(corpus, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("moon.md", "Armstrong walked on the moon in 1969.\n\nApollo 11 carried three astronauts.")
	write("paris.md", "Paris is the capital of France.")

	st, err := index.NewBoltStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	build := NewBuildUseCase(
		st,
		fs.NewWalker([]string{"**/*.md"}, nil),
		chunker.NewParagraphChunker(200, 0),
		embedding.NewMockEmbedder(8),
		2,
	)

	var lastDone, lastTotal int
	result, err := build.Build(context.Background(), corpus, func(done, total int) {
		lastDone, lastTotal = done, total
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.FilesIndexed != 2 {
		t.Errorf("expected 2 files indexed, got %d", result.FilesIndexed)
	}
	if result.FragmentsCreated < 3 {
		t.Errorf("expected at least 3 fragments, got %d", result.FragmentsCreated)
	}
	if lastDone != result.FragmentsCreated || lastTotal != result.FragmentsCreated {
		t.Errorf("progress ended at %d/%d, expected %d/%d",
			lastDone, lastTotal, result.FragmentsCreated, result.FragmentsCreated)
	}

	info, err := st.GetInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Dimension != 8 || info.Model != "mock" || info.Count != result.FragmentsCreated {
		t.Errorf("unexpected artifact info: %+v", info)
	}

	idx, err := st.Load()
	if err != nil {
		t.Fatal(err)
	}
	if idx.Count() != result.FragmentsCreated {
		t.Errorf("expected %d fragments loaded, got %d", result.FragmentsCreated, idx.Count())
	}

	// Doc ids are corpus-relative paths.
	results, err := idx.Search(mustEmbed(t, "Paris is the capital of France."), idx.Count())
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, r := range results {
		seen[r.Fragment.DocID] = true
	}
	if !seen["moon.md"] || !seen["paris.md"] {
		t.Errorf("expected doc ids from relative paths, got %v", seen)
	}
}

func TestBuildIndex_EmptyCorpus(t *testing.T) {
	st, err := index.NewBoltStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	build := NewBuildUseCase(
		st,
		fs.NewWalker([]string{"**/*.md"}, nil),
		chunker.NewParagraphChunker(200, 0),
		embedding.NewMockEmbedder(8),
		10,
	)

	if _, err := build.Build(context.Background(), t.TempDir(), nil); err == nil {
		t.Error("expected error for corpus with no matching files")
	}
}

func mustEmbed(t *testing.T, text string) []float32 {
	t.Helper()
	vectors, err := embedding.NewMockEmbedder(8).Embed(context.Background(), []string{text})
	if err != nil {
		t.Fatal(err)
	}
	return vectors[0]
}
