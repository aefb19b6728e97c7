package driving

import "context"

// Ingestor accepts background ingestion work. Enqueue returns as soon
// as the job is queued; the triggering request never waits for
// chunking, embedding, or indexing.
type Ingestor interface {
	// Enqueue schedules ingestion of a document's gzip-compressed
	// text. Returns domain.ErrQueueFull when the queue cannot accept
	// more work.
	Enqueue(documentID string, compressed []byte) error

	// Start launches the ingestion workers. Blocks until ctx is
	// cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop waits for running jobs, processes jobs still queued, and
	// shuts the workers down.
	Stop() error
}
