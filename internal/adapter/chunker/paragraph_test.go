package chunker

import (
	"strings"
	"testing"
)

func TestChunkEmpty(t *testing.T) {
	c := NewParagraphChunker(100, 0)

	if chunks := c.Chunk(""); chunks != nil {
		t.Errorf("expected no chunks for empty content, got %v", chunks)
	}
	if chunks := c.Chunk("\n\n  \n\n"); chunks != nil {
		t.Errorf("expected no chunks for whitespace content, got %v", chunks)
	}
}

func TestChunkSingleParagraph(t *testing.T) {
	c := NewParagraphChunker(100, 0)

	chunks := c.Chunk("a short paragraph")
	if len(chunks) != 1 || chunks[0] != "a short paragraph" {
		t.Errorf("unexpected chunks: %v", chunks)
	}
}

func TestChunkPacksParagraphsUpToBound(t *testing.T) {
	c := NewParagraphChunker(40, 0)

	chunks := c.Chunk("first paragraph\n\nsecond one\n\nthird paragraph here")
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks under a 40-char bound, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 40 {
			t.Errorf("chunk %d exceeds bound: %d chars", i, len(chunk))
		}
	}
}

func TestChunkOversizedParagraph(t *testing.T) {
	c := NewParagraphChunker(50, 0)

	long := strings.Repeat("word ", 40) // 200 chars, no blank lines
	chunks := c.Chunk(long)
	if len(chunks) < 4 {
		t.Errorf("expected oversized paragraph split into pieces, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 50 {
			t.Errorf("chunk %d exceeds bound: %d chars", i, len(chunk))
		}
		if chunk == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestChunkOverlapCarriesTail(t *testing.T) {
	c := NewParagraphChunker(40, 12)

	chunks := c.Chunk("alpha beta gamma delta\n\nepsilon zeta eta theta")
	if len(chunks) < 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	// The second chunk starts with trailing words of the first.
	if !strings.Contains(chunks[1], "delta") {
		t.Errorf("expected overlap tail in second chunk, got %q", chunks[1])
	}
}
