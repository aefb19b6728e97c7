package memory

import (
	"context"
	"sync"
	"time"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driven"
)

// Ensure APIKeyStore implements the interface.
var _ driven.APIKeyStore = (*APIKeyStore)(nil)

// APIKeyStore is an in-memory implementation of driven.APIKeyStore.
type APIKeyStore struct {
	mu   sync.RWMutex
	keys map[string]domain.APIKey
}

// NewAPIKeyStore creates a new in-memory API key store.
func NewAPIKeyStore() *APIKeyStore {
	return &APIKeyStore{
		keys: make(map[string]domain.APIKey),
	}
}

// Save stores or replaces the encrypted key for a user.
func (s *APIKeyStore) Save(_ context.Context, key domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key.UpdatedAt = time.Now().UTC()
	s.keys[key.Owner] = key
	return nil
}

// Get retrieves the encrypted key for a user.
func (s *APIKeyStore) Get(_ context.Context, owner string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[owner]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &key, nil
}

// Delete removes the stored key for a user.
func (s *APIKeyStore) Delete(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, owner)
	return nil
}
