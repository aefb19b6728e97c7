package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex,
// keyed by passage ID so re-adding a passage replaces it.
type VectorIndex struct {
	mu       sync.RWMutex
	passages map[string]domain.Passage
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		passages: make(map[string]domain.Passage),
	}
}

// Add upserts passages by ID.
func (v *VectorIndex) Add(_ context.Context, passages []domain.Passage) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range passages {
		v.passages[p.ID] = p
	}
	return nil
}

// Query returns up to topK passages of a document ordered by cosine
// similarity descending.
func (v *VectorIndex) Query(_ context.Context, embedding []float32, topK int, documentID string) ([]driven.PassageHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	var hits []driven.PassageHit
	for _, p := range v.passages {
		if p.DocumentID != documentID {
			continue
		}
		hits = append(hits, driven.PassageHit{
			DocumentID: p.DocumentID,
			Index:      p.Index,
			Text:       p.Text,
			Similarity: cosine(embedding, p.Embedding),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Index < hits[j].Index
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteByDocument removes every passage belonging to a document.
func (v *VectorIndex) DeleteByDocument(_ context.Context, documentID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, p := range v.passages {
		if p.DocumentID == documentID {
			delete(v.passages, id)
		}
	}
	return nil
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	return nil
}

// Len reports the number of stored passages, for tests.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.passages)
}

// cosine computes cosine similarity; mismatched or zero vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
