// Package encryption seals small payloads at rest with an AEAD cipher.
//
// The session file store uses it so the persisted wallet list is opaque on
// disk. Keys are passphrases; they are hashed with SHA-256 to the 32-byte
// key both supported ciphers need.
//
// # Usage
//
//	s, err := encryption.New("passphrase")
//	sealed, err := s.Seal(plaintext)
//	plaintext, err := s.Open(sealed)
package encryption
