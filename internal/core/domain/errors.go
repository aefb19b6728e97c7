package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidChunking indicates chunker configuration that can
	// never terminate (overlap >= chunk size). Rejected before any
	// processing starts.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrEmbeddingFailed indicates the embedding model or its
	// endpoint failed for a batch. Not retried automatically.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrIndexUnavailable indicates the vector index rejected a write
	// or cannot be reached.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrRetrievalFailed indicates retrieval infrastructure failed.
	// Distinct from an empty result, which is a valid outcome.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrNoCredential indicates no usable API key was supplied or
	// stored. Synthesis fails before any network call.
	ErrNoCredential = errors.New("no API key configured")

	// ErrUpstreamRejected indicates the language-model endpoint
	// returned a non-2xx response.
	ErrUpstreamRejected = errors.New("upstream API error")

	// ErrQueueFull indicates the ingestion queue cannot accept more
	// work right now.
	ErrQueueFull = errors.New("ingest queue full")
)
