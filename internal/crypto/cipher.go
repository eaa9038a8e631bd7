// Package crypto seals exchange credentials and wallet keys at rest.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 210_000
	aesKeyLen        = 32
	defaultSalt      = "arbitrage-service"
	// sealedVersion prefixes every ciphertext so the format can change later.
	sealedVersion = "v1"
)

var (
	ErrEmptySecret       = errors.New("crypto: encryption secret must not be empty")
	ErrMalformedSealed   = errors.New("crypto: malformed ciphertext")
	ErrUnsupportedFormat = errors.New("crypto: unsupported ciphertext version")
)

// Cipher encrypts short strings with AES-256-GCM. The key is derived once from
// the configured secret with PBKDF2-HMAC-SHA256.
type Cipher struct {
	aead cipher.AEAD
}

func NewCipher(secret, salt string) (*Cipher, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}
	if strings.TrimSpace(salt) == "" {
		salt = defaultSalt
	}

	key := pbkdf2.Key([]byte(secret), []byte(salt), pbkdf2Iterations, aesKeyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: creating GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt returns "v1.<base64url(nonce|ciphertext)>".
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypto: generating nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedVersion + "." + base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *Cipher) Decrypt(sealed string) (string, error) {
	version, payload, ok := strings.Cut(sealed, ".")
	if !ok {
		return "", ErrMalformedSealed
	}
	if version != sealedVersion {
		return "", ErrUnsupportedFormat
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("crypto: decoding ciphertext: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrMalformedSealed
	}

	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("crypto: decryption failed (wrong secret?): %w", err)
	}

	return string(plaintext), nil
}

// GenerateSecret returns a random secret suitable for encryption.secret.
func GenerateSecret() (string, error) {
	b := make([]byte, aesKeyLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
