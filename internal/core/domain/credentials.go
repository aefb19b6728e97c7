package domain

import "time"

// APIKey is a per-user upstream credential, encrypted at rest.
// The plaintext key only exists in memory at the moment of use.
type APIKey struct {
	// Owner identifies the user the key belongs to.
	Owner string

	// Encrypted is the AES-GCM sealed key material.
	Encrypted []byte

	// UpdatedAt is when the key was last written.
	UpdatedAt time.Time
}
