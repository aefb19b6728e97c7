package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driven"
	"github.com/calder-labs/notari/internal/core/ports/driving"
)

// Ensure APIKeyManager implements the interface.
var _ driving.APIKeyService = (*APIKeyManager)(nil)

// APIKeyManager stores per-user upstream credentials encrypted at
// rest. Plaintext keys exist only in memory, at the moment of use.
type APIKeyManager struct {
	store  driven.APIKeyStore
	cipher driven.KeyCipher
}

// NewAPIKeyManager creates the credential service.
func NewAPIKeyManager(store driven.APIKeyStore, cipher driven.KeyCipher) *APIKeyManager {
	return &APIKeyManager{
		store:  store,
		cipher: cipher,
	}
}

// Set encrypts and stores a user's API key, replacing any previous
// one.
func (m *APIKeyManager) Set(ctx context.Context, owner, key string) error {
	if strings.TrimSpace(owner) == "" {
		return fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	if key == "" {
		return fmt.Errorf("%w: key must not be empty", domain.ErrInvalidInput)
	}

	sealed, err := m.cipher.Encrypt(key)
	if err != nil {
		return fmt.Errorf("encrypting key: %w", err)
	}

	return m.store.Save(ctx, domain.APIKey{Owner: owner, Encrypted: sealed})
}

// Get decrypts and returns a user's API key.
func (m *APIKeyManager) Get(ctx context.Context, owner string) (string, error) {
	stored, err := m.store.Get(ctx, owner)
	if err != nil {
		return "", err
	}

	key, err := m.cipher.Decrypt(stored.Encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypting key: %w", err)
	}
	return key, nil
}
