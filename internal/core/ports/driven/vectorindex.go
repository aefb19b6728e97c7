package driven

import (
	"context"

	"github.com/calder-labs/notari/internal/core/domain"
)

// VectorIndex is the persistent passage store with nearest-neighbour
// query. It is durable across process restarts, not an in-memory
// cache. Add and Query may block on disk and are treated as blocking
// calls by the services layer.
type VectorIndex interface {
	// Add upserts passages by ID. Re-adding the same passage ID from
	// a re-run must not duplicate results at query time.
	Add(ctx context.Context, passages []domain.Passage) error

	// Query returns up to topK passages most similar to the query
	// embedding, ordered by similarity descending, restricted to
	// passages belonging to documentID. Zero results is a valid,
	// non-error outcome.
	Query(ctx context.Context, embedding []float32, topK int, documentID string) ([]PassageHit, error)

	// DeleteByDocument removes every passage belonging to a document.
	// Document deletion must cascade through this.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Close releases resources.
	Close() error
}

// PassageHit is one similarity query result.
type PassageHit struct {
	// DocumentID is the source document of the matched passage.
	DocumentID string

	// Index is the passage's chunk position.
	Index int

	// Text is the passage text.
	Text string

	// Similarity is the cosine similarity score.
	Similarity float64
}
