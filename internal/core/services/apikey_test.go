package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/notari/internal/adapters/driven/storage/memory"
	"github.com/calder-labs/notari/internal/core/domain"
)

func TestAPIKeyManager_SetAndGet(t *testing.T) {
	ctx := context.Background()
	store := memory.NewAPIKeyStore()
	mgr := NewAPIKeyManager(store, stubCipher{})

	require.NoError(t, mgr.Set(ctx, "alice", "sk-or-v1-secret"))

	key, err := mgr.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "sk-or-v1-secret", key)

	// Stored material is sealed, not the plaintext.
	stored, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, []byte("sk-or-v1-secret"), stored.Encrypted)
}

func TestAPIKeyManager_SetReplaces(t *testing.T) {
	ctx := context.Background()
	mgr := NewAPIKeyManager(memory.NewAPIKeyStore(), stubCipher{})

	require.NoError(t, mgr.Set(ctx, "alice", "old"))
	require.NoError(t, mgr.Set(ctx, "alice", "new"))

	key, err := mgr.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new", key)
}

func TestAPIKeyManager_Validation(t *testing.T) {
	ctx := context.Background()
	mgr := NewAPIKeyManager(memory.NewAPIKeyStore(), stubCipher{})

	assert.ErrorIs(t, mgr.Set(ctx, "", "key"), domain.ErrInvalidInput)
	assert.ErrorIs(t, mgr.Set(ctx, "alice", ""), domain.ErrInvalidInput)
}

func TestAPIKeyManager_GetMissing(t *testing.T) {
	mgr := NewAPIKeyManager(memory.NewAPIKeyStore(), stubCipher{})

	_, err := mgr.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
