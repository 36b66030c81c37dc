// Package provider defines the identity provider adapter contract and the
// request-scoped session every adapter reads from and writes cookies to.
package provider

import (
	"context"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/internal/auth/metrics"
	"github.com/outta-ai/outta-auth/internal/auth/service"
	"github.com/outta-ai/outta-auth/pkg/jwtx"
)

// Provider is an external identity provider. Every error returned across
// this boundary is a *domain.AuthError.
type Provider interface {
	// Name is the path segment and the provider recorded in tokens.
	Name() string

	// Config checks the provider's credentials at startup.
	Config() error

	// SignIn starts a sign-in attempt and returns the provider's
	// authorization URL. s.ReturnURL must already be validated.
	SignIn(ctx context.Context, s *Session) (string, error)

	// Callback completes the attempt started by SignIn. Transient cookies
	// are cleared on every exit path.
	Callback(ctx context.Context, s *Session) (*Result, error)

	// Refresh renews a session from the provider credential in claims.
	Refresh(ctx context.Context, s *Session, claims jwtx.RefreshClaims) (*Result, error)
}

// Result is a completed callback or refresh. Session cookies for Tokens
// have already been written to the Session.
type Result struct {
	Member    domain.Member
	Tokens    service.SessionTokens
	ReturnURL string // callback only
}

// Deps are the services shared by every adapter.
type Deps struct {
	Members   *service.MemberService
	Sessions  *service.SessionService
	CookieKey []byte
	Metrics   *metrics.Metrics
}

// StartSession resolves the member behind a fresh sign-in and sets the
// session cookies.
func (d Deps) StartSession(ctx context.Context, s *Session, id domain.Identity, auth service.ProviderAuth) (*Result, error) {
	member, err := d.Members.ResolveForSignIn(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.issue(s, member, auth)
}

// ResumeSession re-resolves the member behind a refreshed provider session.
// The member must be the one the refresh token was minted for.
func (d Deps) ResumeSession(ctx context.Context, s *Session, id domain.Identity, auth service.ProviderAuth, memberID string) (*Result, error) {
	member, err := d.Members.ResolveForRefresh(ctx, id, memberID)
	if err != nil {
		return nil, err
	}
	return d.issue(s, member, auth)
}

func (d Deps) issue(s *Session, member domain.Member, auth service.ProviderAuth) (*Result, error) {
	tokens, err := d.Sessions.Issue(member, auth)
	if err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	s.SetSessionCookies(tokens)
	return &Result{Member: member, Tokens: tokens}, nil
}
