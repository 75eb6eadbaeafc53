package index

import (
	"errors"
	"math"
	"testing"

	"ragbench/internal/domain"
)

func testFragments() ([]domain.Fragment, [][]float32) {
	fragments := []domain.Fragment{
		{ID: 0, DocID: "doc-a", Text: "alpha"},
		{ID: 1, DocID: "doc-a", Text: "beta"},
		{ID: 2, DocID: "doc-b", Text: "gamma"},
		{ID: 3, DocID: "doc-c", Text: "delta"},
	}
	embeddings := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.6, 0.8, 0},
		{0, 0, 1},
	}
	return fragments, embeddings
}

func TestMemoryIndexSearch(t *testing.T) {
	fragments, embeddings := testFragments()
	idx, err := NewMemoryIndex(fragments, embeddings)
	if err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Fragment.ID != 0 {
		t.Errorf("expected fragment 0 first, got %d", results[0].Fragment.ID)
	}
	if math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("expected score 1.0 for identical vector, got %f", results[0].Score)
	}
	if results[1].Fragment.ID != 2 {
		t.Errorf("expected fragment 2 second, got %d", results[1].Fragment.ID)
	}
}

func TestMemoryIndexSearch_KLargerThanIndex(t *testing.T) {
	fragments, embeddings := testFragments()
	idx, err := NewMemoryIndex(fragments, embeddings)
	if err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search([]float32{1, 0, 0}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(fragments) {
		t.Errorf("expected %d results, got %d", len(fragments), len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results out of order at %d: %f > %f", i, results[i].Score, results[i-1].Score)
		}
	}
}

func TestMemoryIndexSearch_TiesKeepIndexOrder(t *testing.T) {
	fragments := []domain.Fragment{
		{ID: 0, DocID: "a", Text: "first"},
		{ID: 1, DocID: "b", Text: "second"},
		{ID: 2, DocID: "c", Text: "third"},
	}
	// Identical embeddings produce identical scores.
	embeddings := [][]float32{
		{1, 0},
		{1, 0},
		{1, 0},
	}
	idx, err := NewMemoryIndex(fragments, embeddings)
	if err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range results {
		if r.Fragment.ID != i {
			t.Errorf("expected fragment %d at position %d, got %d", i, i, r.Fragment.ID)
		}
	}
}

func TestMemoryIndexSearch_DimensionMismatch(t *testing.T) {
	fragments, embeddings := testFragments()
	idx, err := NewMemoryIndex(fragments, embeddings)
	if err != nil {
		t.Fatal(err)
	}

	_, err = idx.Search([]float32{1, 0}, 5)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestNewMemoryIndex_Misaligned(t *testing.T) {
	fragments, embeddings := testFragments()

	_, err := NewMemoryIndex(fragments[:3], embeddings)
	if !errors.Is(err, domain.ErrInconsistentIndex) {
		t.Errorf("expected ErrInconsistentIndex for length mismatch, got %v", err)
	}

	bad := [][]float32{{1, 0, 0}, {0, 1}, {0.6, 0.8, 0}, {0, 0, 1}}
	_, err = NewMemoryIndex(fragments, bad)
	if !errors.Is(err, domain.ErrInconsistentIndex) {
		t.Errorf("expected ErrInconsistentIndex for dimension drift, got %v", err)
	}
}

func TestNewMemoryIndex_Empty(t *testing.T) {
	_, err := NewMemoryIndex(nil, nil)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable for empty index, got %v", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		a, b []float32
		want float64
	}{
		{[]float32{1, 0}, []float32{1, 0}, 1.0},
		{[]float32{1, 0}, []float32{0, 1}, 0.0},
		{[]float32{1, 0}, []float32{-1, 0}, -1.0},
		{[]float32{1, 0}, []float32{0, 0}, 0.0},
		{[]float32{1, 0}, []float32{1}, 0.0},
	}
	for _, c := range cases {
		got := cosineSimilarity(c.a, c.b)
		if math.Abs(got-c.want) > 1e-6 {
			t.Errorf("cosineSimilarity(%v, %v) = %f, want %f", c.a, c.b, got, c.want)
		}
	}
}
