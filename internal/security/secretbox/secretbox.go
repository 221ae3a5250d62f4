// Package secretbox encrypts short secrets (OAuth client secrets) for storage in config files.
//
// Ciphertext format: base64(nonce)|base64(ciphertext), AES-256-GCM.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// Prefix marks an encrypted value inside configuration.
	Prefix = "enc:"

	// EnvMasterKey is the environment variable holding the master key.
	EnvMasterKey = "SECRETBOX_MASTER_KEY"

	nonceSize = 12
	keyLength = 32
	sep       = "|"
)

var (
	ErrInvalidKey    = errors.New("secretbox: invalid master key")
	ErrInvalidFormat = errors.New("secretbox: invalid ciphertext format")
	ErrDecrypt       = errors.New("secretbox: decryption failed")
)

// IsEncrypted reports whether v carries the encrypted-value prefix.
func IsEncrypted(v string) bool {
	return strings.HasPrefix(strings.TrimSpace(v), Prefix)
}

// ParseKey accepts a 32-byte key as base64 (std or raw), hex, or raw bytes.
func ParseKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == keyLength {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == keyLength {
		return b, nil
	}
	if len(key) == 2*keyLength {
		if b, err := hex.DecodeString(key); err == nil {
			return b, nil
		}
	}
	if len(key) == keyLength {
		return []byte(key), nil
	}
	return nil, fmt.Errorf("%w: need %d bytes", ErrInvalidKey, keyLength)
}

// Encrypt seals plain with key and returns the prefixed config value.
func Encrypt(key []byte, plain string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}
	ct := gcm.Seal(nil, nonce, []byte(plain), nil)
	return Prefix + base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt opens a value produced by Encrypt. The prefix is optional.
func Decrypt(key []byte, value string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	value = strings.TrimPrefix(strings.TrimSpace(value), Prefix)

	parts := strings.Split(value, sep)
	if len(parts) != 2 {
		return "", ErrInvalidFormat
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return "", ErrInvalidFormat
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrInvalidFormat
	}

	pt, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(pt), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != keyLength {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: %w", err)
	}
	return cipher.NewGCM(block)
}
