// Package pool decorates an embedding service with a bounded worker
// pool. Embedding a batch runs on one of N dedicated workers, never on
// the caller's goroutine; the caller blocks until its batch completes
// and resumes with the vectors. There are no partial results.
package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/calder-labs/notari/internal/core/ports/driven"
	"github.com/calder-labs/notari/internal/logger"
)

// Ensure Service implements the interface.
var _ driven.EmbeddingService = (*Service)(nil)

// Default pool sizing.
const (
	DefaultWorkers   = 2
	DefaultQueueSize = 32
)

// job is one embedding batch submitted to the pool.
type job struct {
	ctx    context.Context
	texts  []string
	result chan jobResult
}

// jobResult carries a completed batch back to its caller.
type jobResult struct {
	embeddings [][]float32
	err        error
}

// Service runs embedding batches on a bounded worker pool.
type Service struct {
	inner driven.EmbeddingService
	jobs  chan job

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New wraps an embedding service with a worker pool. Workers and
// queueSize fall back to defaults when not positive.
func New(inner driven.EmbeddingService, workers, queueSize int) *Service {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	s := &Service{
		inner: inner,
		jobs:  make(chan job, queueSize),
	}

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker(i)
	}

	return s
}

// worker consumes batches until the job channel closes.
func (s *Service) worker(id int) {
	defer s.wg.Done()
	for j := range s.jobs {
		if err := j.ctx.Err(); err != nil {
			j.result <- jobResult{err: err}
			continue
		}
		logger.Debug("embedding worker %d: batch of %d", id, len(j.texts))
		embeddings, err := s.inner.EmbedBatch(j.ctx, j.texts)
		j.result <- jobResult{embeddings: embeddings, err: err}
	}
}

// Embed generates an embedding for one text, a batch of one.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding pool: no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch submits a batch to the pool and blocks until it
// completes. The caller's context cancels the wait; a cancelled batch
// already running completes on the worker and is discarded.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("embedding pool: closed")
	}
	s.mu.Unlock()

	j := job{
		ctx:    ctx,
		texts:  texts,
		result: make(chan jobResult, 1),
	}

	select {
	case s.jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-j.result:
		return res.embeddings, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dimensions returns the wrapped service's vector size.
func (s *Service) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (s *Service) ModelName() string {
	return s.inner.ModelName()
}

// Ping delegates to the wrapped service.
func (s *Service) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close drains the pool, stops the workers, and closes the wrapped
// service.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()

	s.wg.Wait()
	return s.inner.Close()
}
