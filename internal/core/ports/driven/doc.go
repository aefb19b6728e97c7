// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding and language-model endpoints,
// the vector index, and the metadata stores.
package driven
