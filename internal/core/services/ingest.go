package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/calder-labs/notari/internal/chunker"
	"github.com/calder-labs/notari/internal/compress"
	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driven"
	"github.com/calder-labs/notari/internal/core/ports/driving"
	"github.com/calder-labs/notari/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// Default ingestion settings.
const (
	// DefaultIngestWorkers is the number of concurrent ingestion
	// workers.
	DefaultIngestWorkers = 4

	// DefaultQueueSize bounds the pending job queue. A full queue
	// rejects new uploads rather than buffering without limit.
	DefaultQueueSize = 64
)

// ingestJob is one queued document ingestion.
type ingestJob struct {
	documentID string
	compressed []byte
}

// IngestService runs the background ingestion pipeline: decompress,
// chunk, embed, index, then mark the document done. Jobs are queued at
// upload time and processed by a fixed pool of workers so a large
// document never blocks the upload request.
type IngestService struct {
	chunker          *chunker.Chunker
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
	docStore         driven.DocumentStore

	jobs chan ingestJob

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	workers int
}

// IngestConfig configures the ingestion service.
type IngestConfig struct {
	// Workers is the concurrent worker count.
	Workers int

	// QueueSize bounds the pending job queue.
	QueueSize int
}

// NewIngestService creates the ingestion service.
func NewIngestService(
	cfg IngestConfig,
	chk *chunker.Chunker,
	embeddingService driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	docStore driven.DocumentStore,
) *IngestService {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultIngestWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	return &IngestService{
		chunker:          chk,
		embeddingService: embeddingService,
		vectorIndex:      vectorIndex,
		docStore:         docStore,
		jobs:             make(chan ingestJob, cfg.QueueSize),
		workers:          cfg.Workers,
	}
}

// Enqueue schedules ingestion of a document's compressed text.
// Returns domain.ErrQueueFull when the queue cannot accept more work.
func (s *IngestService) Enqueue(documentID string, compressed []byte) error {
	select {
	case s.jobs <- ingestJob{documentID: documentID, compressed: compressed}:
		logger.Debug("ingest: queued document %s", documentID)
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Start launches the ingestion workers and blocks until the context is
// cancelled or Stop is called.
func (s *IngestService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, stopCh)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stopCh:
		return nil
	}
}

// Stop shuts the workers down, waits for running jobs, and processes
// jobs still sitting in the queue so no accepted upload is stranded in
// processing.
func (s *IngestService) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// worker processes queued jobs until shutdown.
func (s *IngestService) worker(ctx context.Context, stopCh <-chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			s.drain(ctx)
			return
		case job := <-s.jobs:
			s.process(ctx, job)
		}
	}
}

// drain processes jobs still queued at shutdown. Enqueue has already
// accepted them, so dropping them would strand their documents in
// processing. A cancelled context skips the drain; those jobs stay
// queued for a future run.
func (s *IngestService) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case job := <-s.jobs:
			s.process(ctx, job)
		default:
			return
		}
	}
}

// process runs one document through the pipeline. A pipeline error
// marks the document failed, unless the run was cut short by context
// cancellation: a shutdown is not a document defect, so the document
// stays processing and a future run can pick it up again.
func (s *IngestService) process(ctx context.Context, job ingestJob) {
	indexed, err := s.ingest(ctx, job)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("ingest: document %s interrupted, leaving it processing", job.documentID)
			return
		}
		logger.Warn("ingest: document %s failed: %v", job.documentID, err)
		if statusErr := s.docStore.UpdateStatus(ctx, job.documentID, domain.StatusFailed); statusErr != nil {
			logger.Warn("ingest: marking document %s failed: %v", job.documentID, statusErr)
		}
		return
	}
	if !indexed {
		return
	}

	if err := s.docStore.UpdateStatus(ctx, job.documentID, domain.StatusDone); err != nil {
		logger.Warn("ingest: marking document %s done: %v", job.documentID, err)
	}
}

// ingest runs the pipeline for one document. It reports whether any
// passages were indexed: an empty document produces nothing and leaves
// the lifecycle status untouched.
func (s *IngestService) ingest(ctx context.Context, job ingestJob) (bool, error) {
	text, err := compress.Decompress(job.compressed)
	if err != nil {
		return false, fmt.Errorf("decompress document: %w", err)
	}

	chunks := s.chunker.Chunk(job.documentID, text)
	if len(chunks) == 0 {
		logger.Info("ingest: document %s has no text, nothing to index", job.documentID)
		return false, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := s.embeddingService.EmbedBatch(ctx, texts)
	if err != nil {
		return false, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return false, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbeddingFailed, len(embeddings), len(chunks))
	}

	passages := make([]domain.Passage, len(chunks))
	for i, c := range chunks {
		passages[i] = domain.NewPassage(c, embeddings[i])
	}

	if err := s.vectorIndex.Add(ctx, passages); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}

	logger.Debug("ingest: indexed %d passages for document %s", len(passages), job.documentID)
	return true, nil
}
