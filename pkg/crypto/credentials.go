package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	errKeyRequired  = errors.New("credential key is required")
	errKeySize      = fmt.Errorf("credential key must be %d hex-encoded bytes", chacha20poly1305.KeySize)
	errCiphertext   = errors.New("ciphertext is malformed")
	errEmptyPayload = errors.New("credential payload is empty")
)

// TokenCipher seals and opens gateway credentials at rest. The orchestrator
// only ever calls Decrypt; Encrypt exists for the credential CRUD surface.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SecretBox implements TokenCipher with XChaCha20-Poly1305.
type SecretBox struct {
	key []byte
}

// NewSecretBox builds a cipher from a hex-encoded 32-byte key.
func NewSecretBox(hexKey string) (*SecretBox, error) {
	if hexKey == "" {
		return nil, errKeyRequired
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding credential key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, errKeySize
	}
	return &SecretBox{key: key}, nil
}

// Encrypt seals the plaintext and returns base64(nonce || ciphertext).
func (s *SecretBox) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errEmptyPayload
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (s *SecretBox) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", errEmptyPayload
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", errCiphertext
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	opened, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("opening credential: %w", err)
	}
	return string(opened), nil
}
