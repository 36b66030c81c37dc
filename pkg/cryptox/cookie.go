package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Cookie payload sizes. The IV is 128 bits rather than the usual 96 so the
// wire format stays compatible with cookies minted by existing clients.
const (
	CookieKeySize = 32
	CookieIVSize  = 16
	CookieTagSize = 16
)

var (
	ErrInvalidKey    = errors.New("cryptox: invalid_key")
	ErrEncryptFailed = errors.New("cryptox: encrypt_failed")
	ErrNoCookie      = errors.New("cryptox: no_cookie")
	ErrInvalidCookie = errors.New("cryptox: invalid_cookie")
)

// CookieKey turns a configured secret into a 256-bit AES key. By default the
// secret must be 64 hex characters. With hashed set, any secret is accepted
// and the key is its SHA-256 digest.
func CookieKey(secret string, hashed bool) ([]byte, error) {
	if hashed {
		if secret == "" {
			return nil, ErrInvalidKey
		}
		sum := sha256.Sum256([]byte(secret))
		return sum[:], nil
	}

	key, err := hex.DecodeString(secret)
	if err != nil || len(key) != CookieKeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// EncryptCookie seals value with AES-256-GCM under a fresh random IV.
//
// Output format: hex(ciphertext) "." hex(tag) "." hex(iv)
func EncryptCookie(value string, key []byte) (string, error) {
	gcm, err := newCookieGCM(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, CookieIVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptFailed, err)
	}

	// Seal appends the tag to the ciphertext; split it back out for the wire format.
	sealed := gcm.Seal(nil, iv, []byte(value), nil)
	ciphertext, tag := sealed[:len(sealed)-CookieTagSize], sealed[len(sealed)-CookieTagSize:]

	return hex.EncodeToString(ciphertext) + "." + hex.EncodeToString(tag) + "." + hex.EncodeToString(iv), nil
}

// DecryptCookie reverses EncryptCookie. Every structural or authentication
// failure wraps ErrInvalidCookie so callers cannot tell them apart; the
// wrapped message keeps the cause for logging.
func DecryptCookie(payload string, key []byte) (string, error) {
	gcm, err := newCookieGCM(key)
	if err != nil {
		return "", err
	}

	if payload == "" {
		return "", ErrNoCookie
	}

	parts := strings.Split(payload, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: expected 3 segments, got %d", ErrInvalidCookie, len(parts))
	}

	ciphertext, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext", ErrInvalidCookie)
	}

	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != CookieTagSize {
		return "", fmt.Errorf("%w: authTag", ErrInvalidCookie)
	}

	iv, err := hex.DecodeString(parts[2])
	if err != nil || len(iv) != CookieIVSize {
		return "", fmt.Errorf("%w: iv", ErrInvalidCookie)
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}

	return string(plaintext), nil
}

func newCookieGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != CookieKeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, CookieIVSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptFailed, err)
	}

	return gcm, nil
}
