package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Fixed registered claim values. A token minted for one purpose is never
// accepted for another, so the subject doubles as the token type.
const (
	AccessSubject  = "auth.access"
	RefreshSubject = "auth.refresh"
	Audience       = "outta.ai/client"
	Issuer         = "api.outta.ai"
)

const (
	// AccessTokenTTL is the lifetime of the access token and its cookie.
	AccessTokenTTL = time.Hour

	// RefreshTokenTTL is the lifetime of the refresh token and its cookie.
	RefreshTokenTTL = 14 * 24 * time.Hour
)

// Claims is implemented by every token payload this package signs. Validate
// is called by the parser after the registered claims have been checked.
type Claims interface {
	jwt.Claims
	Validate() error
}

// MemberRef is the member summary embedded in access tokens.
type MemberRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AccessAuthentication records how the member signed in.
type AccessAuthentication struct {
	Provider string `json:"provider"`
}

// AccessClaims are the claims of a short-lived access token.
type AccessClaims struct {
	jwt.RegisteredClaims

	Member         MemberRef            `json:"member"`
	Authentication AccessAuthentication `json:"authentication"`
}

// RefreshAuthentication carries the provider's own refresh credential so the
// session can be renewed upstream without storing anything server side.
type RefreshAuthentication struct {
	Provider string `json:"provider"`
	Token    string `json:"token"`
}

// RefreshClaims are the claims of a long-lived refresh token.
type RefreshClaims struct {
	jwt.RegisteredClaims

	Member         string                `json:"member"`
	Authentication RefreshAuthentication `json:"authentication"`
}

func registered(subject string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// NewAccessClaims builds access claims for member valid from now.
func NewAccessClaims(member MemberRef, provider string, now time.Time) AccessClaims {
	return AccessClaims{
		RegisteredClaims: registered(AccessSubject, AccessTokenTTL, now),
		Member:           member,
		Authentication:   AccessAuthentication{Provider: provider},
	}
}

// NewRefreshClaims builds refresh claims for memberID valid from now.
func NewRefreshClaims(memberID string, auth RefreshAuthentication, now time.Time) RefreshClaims {
	return RefreshClaims{
		RegisteredClaims: registered(RefreshSubject, RefreshTokenTTL, now),
		Member:           memberID,
		Authentication:   auth,
	}
}

// Validate checks the access payload shape.
func (c AccessClaims) Validate() error {
	if c.Member.ID == "" || c.Authentication.Provider == "" {
		return ErrInvalidClaim
	}
	return nil
}

// Validate checks the refresh payload shape.
func (c RefreshClaims) Validate() error {
	if c.Member == "" || c.Authentication.Provider == "" || c.Authentication.Token == "" {
		return ErrInvalidClaim
	}
	return nil
}
