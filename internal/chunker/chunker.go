// Package chunker provides deterministic fixed-size text chunking.
// Chunk boundaries depend only on (text, chunk size, overlap), so
// re-chunking the same text always yields the same sequence.
package chunker

import (
	"fmt"

	"github.com/calder-labs/notari/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 50

// Chunker splits document text into overlapping fixed-size chunks
// using a sliding window.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between consecutive chunks in
// characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker. An overlap greater than or equal to the chunk
// size can never terminate and is rejected with
// domain.ErrInvalidChunking.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidChunking, c.chunkSize)
	}
	if c.overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", domain.ErrInvalidChunking, c.overlap)
	}
	if c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidChunking, c.overlap, c.chunkSize)
	}

	return c, nil
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split returns the ordered chunk texts for the given text.
// Window i covers runes [i*(size-overlap), i*(size-overlap)+size),
// clipped at the text length. Windows count runes, never bytes, so a
// boundary cannot land inside a multi-byte character. Empty text
// yields no chunks; text shorter than the chunk size yields a single
// chunk equal to the whole text.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	step := c.chunkSize - c.overlap
	chunks := make([]string, 0, len(runes)/step+1)

	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}

// Chunk splits a document's text into ordered domain chunks.
func (c *Chunker) Chunk(documentID, text string) []domain.Chunk {
	texts := c.Split(text)
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{
			DocumentID: documentID,
			Index:      i,
			Text:       t,
		}
	}
	return chunks
}
