package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and fills claims if it's legit.
type Verifier interface {
	Verify(token string, claims Claims, expect Expect) error
}

// Expect captures the registered claim values a token must carry. Every
// field is enforced.
type Expect struct {
	Subject  string
	Issuer   string
	Audience string
}

var (
	// ExpectAccess matches tokens built by NewAccessClaims.
	ExpectAccess = Expect{Subject: AccessSubject, Issuer: Issuer, Audience: Audience}

	// ExpectRefresh matches tokens built by NewRefreshClaims.
	ExpectRefresh = Expect{Subject: RefreshSubject, Issuer: Issuer, Audience: Audience}
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrSubject     = errors.New("jwtx: subject mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")

	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HS256Verifier validates tokens signed by an HS256Signer with the same key.
type HS256Verifier struct {
	key []byte
	now func() time.Time
}

// NewVerifierHS256 creates a verifier. A nil clock means time.Now.
func NewVerifierHS256(key []byte, now func() time.Time) (*HS256Verifier, error) {
	if len(key) < MinKeySize {
		return nil, ErrWeakKey
	}
	if now == nil {
		now = time.Now
	}
	return &HS256Verifier{key: key, now: now}, nil
}

// Verify parses tokenStr into claims. Only HS256 is accepted, so "none" and
// any asymmetric algorithm fail before the key is consulted. exp is required.
func (v *HS256Verifier) Verify(tokenStr string, claims Claims, expect Expect) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(expect.Subject),
		jwt.WithIssuer(expect.Issuer),
		jwt.WithAudience(expect.Audience),
		jwt.WithTimeFunc(v.now),
	)

	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", classify(err), err)
	}
	if !token.Valid {
		return ErrInvalidSig
	}

	return nil
}

// classify maps golang-jwt errors onto our sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrAudience
	case errors.Is(err, jwt.ErrTokenInvalidSubject):
		return ErrSubject
	default:
		return ErrInvalidClaim
	}
}
