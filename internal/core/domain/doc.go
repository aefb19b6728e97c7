// Package domain contains the core business entities and errors for
// Notari: documents and their ingestion lifecycle, chunks and indexed
// passages, streamed answer events, and stored credentials. It has no
// dependencies on infrastructure.
package domain
