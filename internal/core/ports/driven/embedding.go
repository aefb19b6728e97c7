package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// One instance is constructed at startup and shared by the ingestion
// workers and the retrieval path; implementations must be safe for
// concurrent use.
//
// Note: This is separate from VectorIndex which stores and searches
// vectors. EmbeddingService generates vectors; VectorIndex stores them.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// A query embedding is logically a batch of one.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, one vector
	// per input string, preserving input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 1536).
	// All vectors in one index collection share this dimensionality.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used at startup before accepting uploads.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
