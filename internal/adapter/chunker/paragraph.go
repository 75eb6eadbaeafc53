package chunker

import "strings"

// ParagraphChunker splits document text into fragments on blank lines,
// packing consecutive paragraphs up to a character bound with a
// character overlap between adjacent fragments.
type ParagraphChunker struct {
	maxChars int
	overlap  int
}

// NewParagraphChunker creates a chunker with the given bounds.
func NewParagraphChunker(maxChars, overlap int) *ParagraphChunker {
	if maxChars <= 0 {
		maxChars = 1600
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = 0
	}
	return &ParagraphChunker{maxChars: maxChars, overlap: overlap}
}

// Chunk splits content into fragment texts. Whitespace-only content
// yields no fragments. A single paragraph longer than the bound is
// split mid-paragraph rather than dropped.
func (c *ParagraphChunker) Chunk(content string) []string {
	paragraphs := splitParagraphs(content)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		text := strings.TrimSpace(current.String())
		if text != "" {
			chunks = append(chunks, text)
		}
		current.Reset()
	}

	for _, para := range paragraphs {
		for len(para) > c.maxChars {
			// Oversized paragraph: cut at the bound.
			flush()
			chunks = append(chunks, strings.TrimSpace(para[:c.maxChars]))
			para = para[c.maxChars-c.overlap:]
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > c.maxChars {
			tail := overlapTail(current.String(), c.overlap)
			flush()
			if tail != "" {
				current.WriteString(tail)
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// splitParagraphs breaks text on blank lines, trimming each paragraph.
func splitParagraphs(content string) []string {
	var paragraphs []string
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			paragraphs = append(paragraphs, block)
		}
	}
	return paragraphs
}

// overlapTail returns up to n trailing characters of text, cut at a
// word boundary so the overlap reads naturally.
func overlapTail(text string, n int) string {
	if n <= 0 || text == "" {
		return ""
	}
	if len(text) <= n {
		return text
	}
	tail := text[len(text)-n:]
	if idx := strings.IndexAny(tail, " \n"); idx >= 0 {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}
