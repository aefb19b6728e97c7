package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/notari/internal/adapters/driven/storage/memory"
	"github.com/calder-labs/notari/internal/compress"
	"github.com/calder-labs/notari/internal/core/domain"
)

func TestUpload_SavesProcessingAndEnqueues(t *testing.T) {
	docStore := memory.NewDocumentStore()
	ingestor := &stubIngestor{}
	mgr := NewDocumentManager(docStore, memory.NewVectorIndex(), ingestor)

	doc, err := mgr.Upload(context.Background(), "alice", "notes.md", "hello world")
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, domain.StatusProcessing, doc.Status)
	assert.Equal(t, []string{doc.ID}, ingestor.enqueued)

	// Stored text is compressed, round-trippable.
	stored, err := docStore.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	text, err := compress.Decompress(stored.Compressed)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestUpload_RejectsBlankOwnerOrFilename(t *testing.T) {
	mgr := NewDocumentManager(memory.NewDocumentStore(), memory.NewVectorIndex(), &stubIngestor{})

	_, err := mgr.Upload(context.Background(), "  ", "a.txt", "text")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = mgr.Upload(context.Background(), "alice", "", "text")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpload_QueueFullMarksFailed(t *testing.T) {
	docStore := memory.NewDocumentStore()
	mgr := NewDocumentManager(docStore, memory.NewVectorIndex(), &stubIngestor{err: domain.ErrQueueFull})

	_, err := mgr.Upload(context.Background(), "alice", "a.txt", "text")
	require.ErrorIs(t, err, domain.ErrQueueFull)

	docs, err := docStore.ListByOwner(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, domain.StatusFailed, docs[0].Status)
}

func TestStatus(t *testing.T) {
	docStore := memory.NewDocumentStore()
	mgr := NewDocumentManager(docStore, memory.NewVectorIndex(), &stubIngestor{})

	doc, err := mgr.Upload(context.Background(), "alice", "a.txt", "text")
	require.NoError(t, err)

	status, err := mgr.Status(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, status)

	_, err = mgr.Status(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_CascadesToPassages(t *testing.T) {
	ctx := context.Background()
	docStore := memory.NewDocumentStore()
	index := memory.NewVectorIndex()
	mgr := NewDocumentManager(docStore, index, &stubIngestor{})

	doc, err := mgr.Upload(ctx, "alice", "a.txt", "text")
	require.NoError(t, err)

	require.NoError(t, index.Add(ctx, []domain.Passage{
		domain.NewPassage(domain.Chunk{DocumentID: doc.ID, Index: 0, Text: "text"}, []float32{1}),
	}))

	require.NoError(t, mgr.Delete(ctx, doc.ID, "alice"))

	_, err = docStore.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, index.Len(), "passages must be removed with the document")
}

func TestDelete_WrongOwnerSeesNotFound(t *testing.T) {
	ctx := context.Background()
	docStore := memory.NewDocumentStore()
	mgr := NewDocumentManager(docStore, memory.NewVectorIndex(), &stubIngestor{})

	doc, err := mgr.Upload(ctx, "alice", "a.txt", "text")
	require.NoError(t, err)

	assert.ErrorIs(t, mgr.Delete(ctx, doc.ID, "bob"), domain.ErrNotFound)

	// Still there for the real owner.
	_, err = docStore.Get(ctx, doc.ID)
	assert.NoError(t, err)
}

func TestList_IsolatedPerOwner(t *testing.T) {
	ctx := context.Background()
	mgr := NewDocumentManager(memory.NewDocumentStore(), memory.NewVectorIndex(), &stubIngestor{})

	_, err := mgr.Upload(ctx, "alice", "a.txt", "text")
	require.NoError(t, err)
	_, err = mgr.Upload(ctx, "bob", "b.txt", "text")
	require.NoError(t, err)

	docs, err := mgr.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a.txt", docs[0].Filename)
}
