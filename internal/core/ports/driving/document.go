package driving

import (
	"context"

	"github.com/calder-labs/notari/internal/core/domain"
)

// DocumentService manages the document lifecycle: upload, listing,
// status inspection, and deletion with passage cascade.
type DocumentService interface {
	// Upload stores a new document record with status "processing"
	// and enqueues background ingestion of its text.
	Upload(ctx context.Context, owner, filename, text string) (*domain.Document, error)

	// List returns the documents owned by a user.
	List(ctx context.Context, owner string) ([]domain.Document, error)

	// Status returns the lifecycle status of a document.
	Status(ctx context.Context, id string) (domain.DocumentStatus, error)

	// Delete removes a document and cascades to all of its passages
	// in the vector index.
	Delete(ctx context.Context, id, owner string) error
}

// APIKeyService manages per-user upstream credentials, encrypted at
// rest.
type APIKeyService interface {
	// Set encrypts and stores a user's API key.
	Set(ctx context.Context, owner, key string) error

	// Get decrypts and returns a user's API key.
	// Returns domain.ErrNotFound if none is stored.
	Get(ctx context.Context, owner string) (string, error)
}
