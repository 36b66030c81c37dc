package service

import (
	"fmt"
	"time"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/pkg/jwtx"
)

// ProviderAuth is the provider credential a refresh token carries.
type ProviderAuth struct {
	Provider     string
	RefreshToken string
}

// SessionTokens are the two cookies minted on a successful sign-in or
// refresh. Refresh is empty when the provider gave no refresh credential.
type SessionTokens struct {
	Access  string
	Refresh string
}

// SessionService mints and verifies the service's own session tokens.
type SessionService struct {
	signer   jwtx.Signer
	verifier jwtx.Verifier
	now      func() time.Time
}

// NewSessionService builds a codec over a shared HS256 key. A nil clock
// means time.Now.
func NewSessionService(key []byte, now func() time.Time) (*SessionService, error) {
	if now == nil {
		now = time.Now
	}

	signer, err := jwtx.NewSignerHS256(key)
	if err != nil {
		return nil, err
	}
	verifier, err := jwtx.NewVerifierHS256(key, now)
	if err != nil {
		return nil, err
	}

	return &SessionService{signer: signer, verifier: verifier, now: now}, nil
}

// IssueAccessToken signs an access token for member.
func (s *SessionService) IssueAccessToken(member domain.Member, provider string) (string, error) {
	claims := jwtx.NewAccessClaims(jwtx.MemberRef{ID: member.ID, Name: member.Name}, provider, s.now())
	token, err := s.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}

// IssueRefreshToken signs a refresh token embedding the provider credential.
// ok is false, with no error, when there is no credential to embed.
func (s *SessionService) IssueRefreshToken(memberID string, auth *ProviderAuth) (token string, ok bool, err error) {
	if auth == nil || auth.RefreshToken == "" {
		return "", false, nil
	}

	claims := jwtx.NewRefreshClaims(memberID, jwtx.RefreshAuthentication{
		Provider: auth.Provider,
		Token:    auth.RefreshToken,
	}, s.now())

	token, err = s.signer.Sign(claims)
	if err != nil {
		return "", false, fmt.Errorf("sign refresh token: %w", err)
	}
	return token, true, nil
}

// Issue mints both tokens for member.
func (s *SessionService) Issue(member domain.Member, auth ProviderAuth) (SessionTokens, error) {
	access, err := s.IssueAccessToken(member, auth.Provider)
	if err != nil {
		return SessionTokens{}, err
	}

	refresh, _, err := s.IssueRefreshToken(member.ID, &auth)
	if err != nil {
		return SessionTokens{}, err
	}

	return SessionTokens{Access: access, Refresh: refresh}, nil
}

// VerifyAccess returns the claims of a valid access token.
func (s *SessionService) VerifyAccess(token string) (jwtx.AccessClaims, error) {
	var claims jwtx.AccessClaims
	if err := s.verifier.Verify(token, &claims, jwtx.ExpectAccess); err != nil {
		return jwtx.AccessClaims{}, err
	}
	return claims, nil
}

// VerifyRefresh returns the claims of a valid refresh token.
func (s *SessionService) VerifyRefresh(token string) (jwtx.RefreshClaims, error) {
	var claims jwtx.RefreshClaims
	if err := s.verifier.Verify(token, &claims, jwtx.ExpectRefresh); err != nil {
		return jwtx.RefreshClaims{}, err
	}
	return claims, nil
}

// Verifier exposes the access token verifier for middleware.
func (s *SessionService) Verifier() jwtx.Verifier { return s.verifier }
