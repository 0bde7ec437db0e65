package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecryptionFailed is returned when a sealed value cannot be opened,
// either because the key changed or the value was tampered with.
var ErrDecryptionFailed = errors.New("storage: decryption failed")

// Sealed encrypts values with XChaCha20-Poly1305 before handing them to
// the wrapped KV. Keys stay in clear text and are bound to the value as
// associated data, so a sealed token cannot be moved under another key.
type Sealed struct {
	inner KV
	aead  cipher.AEAD
}

// NewSealed wraps inner with a 32-byte key.
func NewSealed(inner KV, key []byte) (*Sealed, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("storage: sealing key: %w", err)
	}
	return &Sealed{inner: inner, aead: aead}, nil
}

// GenerateKey returns a random sealing key, hex encoded for the
// storage.durable.encryption_key setting.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// ParseKey decodes a hex encoded 32-byte sealing key.
func ParseKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not hex: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return key, nil
}

// Get opens the stored value.
func (s *Sealed) Get(ctx context.Context, key string) (string, error) {
	stored, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}

	raw, err := base64.RawStdEncoding.DecodeString(stored)
	if err != nil || len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return "", ErrDecryptionFailed
	}

	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plain), nil
}

// Set seals value under a fresh random nonce.
func (s *Sealed) Set(ctx context.Context, key, value string) error {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("storage: nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.inner.Set(ctx, key, base64.RawStdEncoding.EncodeToString(sealed))
}

// Delete removes key from the wrapped store.
func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// Close closes the wrapped store.
func (s *Sealed) Close() error {
	return s.inner.Close()
}
