package provider

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/pkg/cryptox"
)

// BeginAttempt queues the transient cookies for a new sign-in attempt and
// returns the state query value and the PKCE verifier. A later attempt from
// the same client overwrites these cookies, so only the latest callback can
// succeed.
func BeginAttempt(s *Session, providerName string, cookieKey []byte) (state, verifier string, err error) {
	if s.ReturnURL == "" {
		return "", "", domain.ErrInvalidReturnURL
	}

	nonce := uuid.NewString()
	verifier = oauth2.GenerateVerifier()

	sealed, err := cryptox.EncryptCookie(verifier, cookieKey)
	if err != nil {
		return "", "", domain.ErrInternal.WithCause(fmt.Errorf("encrypt code verifier: %w", err))
	}

	s.SetTransient(CookieState, nonce)
	s.SetTransient(CookieCodeVerifier, sealed)
	s.SetTransient(CookieReturnURL, s.ReturnURL)

	return StateParam(nonce, providerName), verifier, nil
}

// StateParam binds a state nonce to a provider.
func StateParam(nonce, providerName string) string {
	return nonce + "-" + providerName
}

// CheckState requires the query state to equal the stored nonce bound to
// providerName, exactly.
func CheckState(s *Session, providerName string) error {
	nonce := s.Cookie(CookieState)
	if nonce == "" {
		return domain.ErrNoState
	}
	if s.Query("state") != StateParam(nonce, providerName) {
		return domain.ErrInvalidState
	}
	return nil
}

// CodeVerifier decrypts the PKCE verifier stored by BeginAttempt.
func CodeVerifier(s *Session, cookieKey []byte) (string, error) {
	sealed := s.Cookie(CookieCodeVerifier)
	if sealed == "" {
		return "", domain.ErrNoCodeVerifier
	}

	verifier, err := cryptox.DecryptCookie(sealed, cookieKey)
	switch {
	case err == nil:
		return verifier, nil
	case errors.Is(err, cryptox.ErrInvalidKey):
		return "", domain.ErrInternal.WithCause(err)
	default:
		return "", domain.ErrInvalidCodeVerifier.WithCause(err)
	}
}

// StoredReturnURL returns the return URL saved at sign-in. It is checked
// again since cookies are client controlled.
func StoredReturnURL(s *Session) (string, error) {
	raw := s.Cookie(CookieReturnURL)
	if raw == "" {
		return "", domain.ErrNoReturnURL
	}
	if _, err := parseHTTPURL(raw); err != nil {
		return "", domain.ErrNoReturnURL.WithCause(err)
	}
	return raw, nil
}

// ValidateReturnURL requires returnURL to be an absolute http(s) URL on the
// same origin as the request's Origin header.
func ValidateReturnURL(returnURL, origin string) error {
	target, err := parseHTTPURL(returnURL)
	if err != nil {
		return domain.ErrInvalidReturnURL.WithCause(err)
	}
	from, err := parseHTTPURL(origin)
	if err != nil {
		return domain.ErrInvalidReturnURL.WithCause(fmt.Errorf("origin: %w", err))
	}

	if !strings.EqualFold(target.Scheme, from.Scheme) || !strings.EqualFold(target.Host, from.Host) {
		return domain.ErrInvalidReturnURL.WithCause(fmt.Errorf("origin %q does not match %q", from.Host, target.Host))
	}
	return nil
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("scheme %q not allowed", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}
