package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeySize is the smallest HMAC key accepted, in bytes.
const MinKeySize = 32

var ErrWeakKey = errors.New("jwtx: signing key too short")

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HS256Signer signs tokens with a shared HMAC SHA-256 key.
type HS256Signer struct {
	key []byte
}

// NewSignerHS256 creates a signer from raw key bytes.
func NewSignerHS256(key []byte) (*HS256Signer, error) {
	if len(key) < MinKeySize {
		return nil, ErrWeakKey
	}
	return &HS256Signer{key: key}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	if err := claims.Validate(); err != nil {
		return "", err
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}
