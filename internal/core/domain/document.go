package domain

import (
	"fmt"
	"time"
)

// DocumentStatus tracks the ingestion lifecycle of an uploaded document.
type DocumentStatus string

// Document lifecycle states.
const (
	// StatusProcessing is set when the document record is created,
	// before background ingestion starts.
	StatusProcessing DocumentStatus = "processing"

	// StatusDone is set exactly once, after every passage for the
	// document has been indexed.
	StatusDone DocumentStatus = "done"

	// StatusFailed is a terminal state set when ingestion raised an
	// error mid-pipeline.
	StatusFailed DocumentStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusProcessing, StatusDone, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status will not change again.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// Document represents an uploaded document owned by a user.
// The full text is stored gzip-compressed; chunks and passages are
// derived from it and recomputable at any time.
type Document struct {
	// ID is the opaque, globally unique document identifier.
	ID string

	// Filename is the display name from the original upload.
	Filename string

	// Owner identifies the uploading user.
	Owner string

	// Compressed is the gzip-compressed document text at rest.
	Compressed []byte

	// Status is the ingestion lifecycle state.
	Status DocumentStatus

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time
}

// Chunk is an ordered substring of a document's text, the unit of
// embedding and retrieval. Chunks are derived, never persisted outside
// the vector index.
type Chunk struct {
	// DocumentID is the source document.
	DocumentID string

	// Index is the zero-based sequence position within the document.
	Index int

	// Text is the raw chunk text.
	Text string
}

// Passage is a chunk plus its embedding as stored in the vector index.
// Passages are created during ingestion, never mutated, and deleted
// only when their owning document is deleted.
type Passage struct {
	// ID is the passage identifier, always "{document_id}_{index}".
	ID string

	// DocumentID is the source document, used as the query filter.
	DocumentID string

	// Index is the chunk sequence position.
	Index int

	// Text is the chunk text.
	Text string

	// Embedding is the vector representation.
	Embedding []float32
}

// PassageID builds the canonical passage identifier for a chunk.
func PassageID(documentID string, index int) string {
	return fmt.Sprintf("%s_%d", documentID, index)
}

// NewPassage builds a Passage from a chunk and its embedding.
func NewPassage(chunk Chunk, embedding []float32) Passage {
	return Passage{
		ID:         PassageID(chunk.DocumentID, chunk.Index),
		DocumentID: chunk.DocumentID,
		Index:      chunk.Index,
		Text:       chunk.Text,
		Embedding:  embedding,
	}
}
