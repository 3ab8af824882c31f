// Package sealing encrypts small secrets before they are written to MongoDB.
//
// Keys are derived from the configured session key with HKDF, one per
// purpose, so a sealed bearer token cannot be opened as a handoff value.
package sealing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var (
	// ErrShortSecret is returned when the root secret is under 32 bytes.
	ErrShortSecret = errors.New("sealing secret must be at least 32 bytes")

	// ErrOpen is returned for values that were not sealed with this key or
	// were altered.
	ErrOpen = errors.New("sealed value cannot be opened")
)

// Sealer seals and opens values for one purpose.
type Sealer struct {
	key [32]byte
}

// New derives a purpose-specific key from secret.
func New(secret []byte, purpose string) (*Sealer, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	s := &Sealer{}
	kdf := hkdf.New(sha256.New, secret, nil, []byte("raciconsole/"+purpose))
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return nil, err
	}
	return s, nil
}

// Seal encrypts plain with a fresh random nonce, prepended to the box.
func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

// Open reverses Seal.
func (s *Sealer) Open(box []byte) ([]byte, error) {
	if len(box) < nonceSize+secretbox.Overhead {
		return nil, ErrOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrOpen
	}
	return plain, nil
}

// SealString seals a string into URL-safe base64.
func (s *Sealer) SealString(v string) (string, error) {
	box, err := s.Seal([]byte(v))
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(box), nil
}

// OpenString reverses SealString.
func (s *Sealer) OpenString(v string) (string, error) {
	box, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return "", ErrOpen
	}
	plain, err := s.Open(box)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
