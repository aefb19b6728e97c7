package driven

import (
	"context"

	"github.com/calder-labs/notari/internal/core/domain"
)

// DocumentStore persists document records and their lifecycle status.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// Save stores or updates a document record.
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// UpdateStatus writes the document's lifecycle status. The write
	// is atomic and idempotent.
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error

	// ListByOwner returns all documents owned by a user.
	ListByOwner(ctx context.Context, owner string) ([]domain.Document, error)

	// Delete removes a document record.
	Delete(ctx context.Context, id string) error
}
