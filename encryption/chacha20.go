package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// aeadSealer prefixes every sealed payload with a random nonce.
type aeadSealer struct {
	aead cipher.AEAD
}

// NewChaCha20 creates a ChaCha20-Poly1305 Sealer.
func NewChaCha20(key string) (Sealer, error) {
	aead, err := chacha20poly1305.New(deriveKey(key))
	if err != nil {
		return nil, fmt.Errorf("create chacha20: %w", err)
	}
	return &aeadSealer{aead: aead}, nil
}

// NewAESGCM creates an AES-256-GCM Sealer.
func NewAESGCM(key string) (Sealer, error) {
	block, err := aes.NewCipher(deriveKey(key))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &aeadSealer{aead: gcm}, nil
}

func (s *aeadSealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *aeadSealer) Open(sealed []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, ErrOpen
	}
	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, ErrOpen
	}
	return plaintext, nil
}
