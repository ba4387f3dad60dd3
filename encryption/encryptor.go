package encryption

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

// ErrOpen is returned when a sealed payload is truncated, tampered with or
// was sealed under another key.
var ErrOpen = errors.New("encryption: cannot open sealed payload")

// Sealer encrypts and authenticates byte payloads.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// Algorithm represents supported encryption algorithms.
type Algorithm string

const (
	// AlgorithmChaCha20 is ChaCha20-Poly1305 (default).
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"

	// AlgorithmAESGCM is AES-256-GCM.
	AlgorithmAESGCM Algorithm = "aes-256-gcm"
)

// Option configures New.
type Option func(*options)

type options struct {
	algorithm Algorithm
}

// WithAlgorithm selects the cipher.
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) { o.algorithm = alg }
}

// New creates a Sealer for key. An empty key is rejected.
func New(key string, opts ...Option) (Sealer, error) {
	if key == "" {
		return nil, errors.New("encryption: empty key")
	}
	o := &options{algorithm: AlgorithmChaCha20}
	for _, opt := range opts {
		opt(o)
	}

	switch o.algorithm {
	case AlgorithmChaCha20:
		return NewChaCha20(key)
	case AlgorithmAESGCM:
		return NewAESGCM(key)
	default:
		return nil, fmt.Errorf("encryption: unknown algorithm %q", o.algorithm)
	}
}

func deriveKey(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}
