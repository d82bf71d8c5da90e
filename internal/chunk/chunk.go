// Package chunk splits file content into indexable text chunks.
package chunk

import "strings"

// Chunk is one indexable unit of a file's content.
type Chunk struct {
	Index int    // position within the file's chunk sequence
	Text  string // trimmed chunk text, never empty
}

// Splitter turns file content into an ordered sequence of chunks.
type Splitter interface {
	Split(content string) []Chunk
}

// ParagraphSplitter splits content on blank lines. Every chunk is
// trimmed of surrounding whitespace and empty chunks are dropped, so
// the produced indices are dense starting at zero. Splitting never
// fails: a file with no non-blank content simply yields no chunks.
type ParagraphSplitter struct{}

// NewParagraphSplitter returns the default splitter.
func NewParagraphSplitter() *ParagraphSplitter {
	return &ParagraphSplitter{}
}

// Split implements Splitter.
func (p *ParagraphSplitter) Split(content string) []Chunk {
	parts := strings.Split(content, "\n\n")
	chunks := make([]Chunk, 0, len(parts))
	for _, part := range parts {
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: text})
	}
	return chunks
}
