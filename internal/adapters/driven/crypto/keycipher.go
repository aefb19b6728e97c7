// Package crypto seals per-user credentials with AES-GCM for storage
// at rest. The cipher key comes from configuration and never leaves
// the process.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/calder-labs/notari/internal/core/ports/driven"
)

// Ensure KeyCipher implements the interface.
var _ driven.KeyCipher = (*KeyCipher)(nil)

// ErrCiphertextTooShort is returned when sealed material is shorter
// than a nonce and cannot be valid.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// KeyCipher seals and opens credential material with AES-256-GCM.
// The secret may be any length; it is stretched to a 256-bit key.
type KeyCipher struct {
	aead cipher.AEAD
}

// NewKeyCipher creates a cipher from the given secret.
func NewKeyCipher(secret string) (*KeyCipher, error) {
	if secret == "" {
		return nil, errors.New("cipher secret must not be empty")
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &KeyCipher{aead: aead}, nil
}

// Encrypt seals a plaintext key. The nonce is prepended to the sealed
// material, so every call produces a distinct ciphertext.
func (c *KeyCipher) Encrypt(plaintext string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt opens sealed key material.
func (c *KeyCipher) Decrypt(sealed []byte) (string, error) {
	if len(sealed) < c.aead.NonceSize() {
		return "", ErrCiphertextTooShort
	}

	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("opening ciphertext: %w", err)
	}

	return string(plaintext), nil
}
