package payload

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const sealerInfo = "savekeep/profile-payload/v1"

// Sealer applies the reversible transform applied to encrypted profile payloads.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives an AES-256 key from passphrase.
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("sealer passphrase is required")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(passphrase), nil, []byte(sealerInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns base64(nonce || ciphertext).
func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	payload := s.aead.Seal(nonce, nonce, plain, nil)
	out := make([]byte, base64.RawStdEncoding.EncodedLen(len(payload)))
	base64.RawStdEncoding.Encode(out, payload)
	return out, nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	payload := make([]byte, base64.RawStdEncoding.DecodedLen(len(sealed)))
	n, err := base64.RawStdEncoding.Decode(payload, sealed)
	if err != nil {
		return nil, fmt.Errorf("decode sealed payload: %w", err)
	}
	payload = payload[:n]
	nonceSize := s.aead.NonceSize()
	if len(payload) < nonceSize {
		return nil, errors.New("sealed payload is too short")
	}
	plain, err := s.aead.Open(nil, payload[:nonceSize], payload[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("open sealed payload: %w", err)
	}
	return plain, nil
}
