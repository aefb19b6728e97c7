package services

import (
	"context"
	"fmt"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driven"
	"github.com/calder-labs/notari/internal/core/ports/driving"
	"github.com/calder-labs/notari/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// DefaultTopK is the number of passages retrieved per question.
const DefaultTopK = 4

// RetrievalService answers similarity queries scoped to one document.
type RetrievalService struct {
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
}

// NewRetrievalService creates the retrieval service.
func NewRetrievalService(embeddingService driven.EmbeddingService, vectorIndex driven.VectorIndex) *RetrievalService {
	return &RetrievalService{
		embeddingService: embeddingService,
		vectorIndex:      vectorIndex,
	}
}

// Retrieve embeds the query and returns up to topK passage texts in
// similarity order. An empty result is valid: the document may still
// be processing or the index may hold nothing for it.
func (s *RetrievalService) Retrieve(ctx context.Context, documentID, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	embedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", domain.ErrRetrievalFailed, err)
	}

	hits, err := s.vectorIndex.Query(ctx, embedding, topK, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying index: %v", domain.ErrRetrievalFailed, err)
	}

	logger.Debug("retrieve: %d hits for document %s", len(hits), documentID)

	texts := make([]string, len(hits))
	for i, hit := range hits {
		texts[i] = hit.Text
	}
	return texts, nil
}
