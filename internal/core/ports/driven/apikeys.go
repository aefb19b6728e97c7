package driven

import (
	"context"

	"github.com/calder-labs/notari/internal/core/domain"
)

// APIKeyStore persists per-user upstream credentials. Key material is
// stored encrypted; encryption and decryption are the KeyCipher's job.
type APIKeyStore interface {
	// Save stores or replaces the encrypted key for a user.
	Save(ctx context.Context, key domain.APIKey) error

	// Get retrieves the encrypted key for a user.
	// Returns domain.ErrNotFound if none is stored.
	Get(ctx context.Context, owner string) (*domain.APIKey, error)

	// Delete removes the stored key for a user.
	Delete(ctx context.Context, owner string) error
}

// KeyCipher seals and opens credential material for at-rest storage.
type KeyCipher interface {
	// Encrypt seals a plaintext key.
	Encrypt(plaintext string) ([]byte, error)

	// Decrypt opens sealed key material.
	Decrypt(sealed []byte) (string, error)
}
