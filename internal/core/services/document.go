package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/calder-labs/notari/internal/compress"
	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driven"
	"github.com/calder-labs/notari/internal/core/ports/driving"
	"github.com/calder-labs/notari/internal/logger"
)

// Ensure DocumentManager implements the interface.
var _ driving.DocumentService = (*DocumentManager)(nil)

// DocumentManager owns the document lifecycle: upload, listing, status
// inspection, and deletion with passage cascade.
type DocumentManager struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
	ingestor    driving.Ingestor
}

// NewDocumentManager creates the document lifecycle service.
func NewDocumentManager(docStore driven.DocumentStore, vectorIndex driven.VectorIndex, ingestor driving.Ingestor) *DocumentManager {
	return &DocumentManager{
		docStore:    docStore,
		vectorIndex: vectorIndex,
		ingestor:    ingestor,
	}
}

// Upload stores a new document with status "processing" and enqueues
// background ingestion. The call returns as soon as the record is
// saved and the job queued; it never waits for the pipeline.
func (m *DocumentManager) Upload(ctx context.Context, owner, filename, text string) (*domain.Document, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}

	compressed, err := compress.Text(text)
	if err != nil {
		return nil, fmt.Errorf("compressing document: %w", err)
	}

	doc := &domain.Document{
		ID:         uuid.NewString(),
		Filename:   filename,
		Owner:      owner,
		Compressed: compressed,
		Status:     domain.StatusProcessing,
	}

	if err := m.docStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	if err := m.ingestor.Enqueue(doc.ID, compressed); err != nil {
		// The record exists but will never be processed; surface
		// that in its status before reporting the failure.
		if statusErr := m.docStore.UpdateStatus(ctx, doc.ID, domain.StatusFailed); statusErr != nil {
			logger.Warn("upload: marking document %s failed: %v", doc.ID, statusErr)
		}
		return nil, fmt.Errorf("queueing ingestion: %w", err)
	}

	logger.Info("upload: accepted %s (%s) for %s", doc.ID, filename, owner)
	return doc, nil
}

// List returns the documents owned by a user.
func (m *DocumentManager) List(ctx context.Context, owner string) ([]domain.Document, error) {
	return m.docStore.ListByOwner(ctx, owner)
}

// Status returns the lifecycle status of a document.
func (m *DocumentManager) Status(ctx context.Context, id string) (domain.DocumentStatus, error) {
	doc, err := m.docStore.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return doc.Status, nil
}

// Delete removes a document and cascades to its passages in the
// vector index. Only the owner may delete; anyone else sees not found.
func (m *DocumentManager) Delete(ctx context.Context, id, owner string) error {
	doc, err := m.docStore.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc.Owner != owner {
		return domain.ErrNotFound
	}

	if err := m.vectorIndex.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("deleting passages: %w", err)
	}

	if err := m.docStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	logger.Info("delete: removed document %s and its passages", id)
	return nil
}
