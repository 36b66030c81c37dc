package provider

import (
	"net/http"
	"time"

	"github.com/outta-ai/outta-auth/internal/auth/service"
	"github.com/outta-ai/outta-auth/pkg/jwtx"
)

// Cookie names are part of the client contract.
const (
	CookieState        = "OUTTA_OAUTH_STATE"
	CookieCodeVerifier = "OUTTA_OAUTH_CODE_VERIFIER"
	CookieReturnURL    = "OUTTA_REDIRECT_URI"
	CookieAccessToken  = "OUTTA_ACCESS_TOKEN"
	CookieRefreshToken = "OUTTA_REFRESH_TOKEN"
)

// TransientTTL bounds how long a sign-in attempt may stay pending.
const TransientTTL = 10 * time.Minute

var transientCookies = []string{CookieState, CookieCodeVerifier, CookieReturnURL}

// Session is one request's view of the client's cookie jar. Adapters read
// the incoming request and queue outgoing cookies; the HTTP layer writes
// them with Flush.
type Session struct {
	Request *http.Request

	// ReturnURL is the validated post-login destination for SignIn.
	ReturnURL string

	secure bool
	jar    []*http.Cookie
}

// NewSession wraps r. secure marks every outgoing cookie Secure.
func NewSession(r *http.Request, secure bool) *Session {
	return &Session{Request: r, secure: secure}
}

// Cookie returns the value of the named request cookie, or "".
func (s *Session) Cookie(name string) string {
	c, err := s.Request.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// Query returns the named query parameter.
func (s *Session) Query(name string) string {
	return s.Request.URL.Query().Get(name)
}

// Origin returns the request's Origin header.
func (s *Session) Origin() string {
	return s.Request.Header.Get("Origin")
}

// SetCookie queues a cookie, replacing any queued cookie of the same name.
func (s *Session) SetCookie(name, value string, maxAge time.Duration) {
	s.put(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie queues an expired cookie.
func (s *Session) ClearCookie(name string) {
	s.put(&http.Cookie{
		Name:     name,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetTransient queues a cookie that lives as long as a pending sign-in.
func (s *Session) SetTransient(name, value string) {
	s.SetCookie(name, value, TransientTTL)
}

// ClearTransient expires the state, verifier and return URL cookies.
func (s *Session) ClearTransient() {
	for _, name := range transientCookies {
		s.ClearCookie(name)
	}
}

// SetSessionCookies queues the access cookie and, when present, the
// refresh cookie.
func (s *Session) SetSessionCookies(t service.SessionTokens) {
	s.SetCookie(CookieAccessToken, t.Access, jwtx.AccessTokenTTL)
	if t.Refresh != "" {
		s.SetCookie(CookieRefreshToken, t.Refresh, jwtx.RefreshTokenTTL)
	}
}

// ClearSessionCookies expires the access and refresh cookies.
func (s *Session) ClearSessionCookies() {
	s.ClearCookie(CookieAccessToken)
	s.ClearCookie(CookieRefreshToken)
}

// Cookies returns the queued cookies in the order they were first set.
func (s *Session) Cookies() []*http.Cookie { return s.jar }

// Flush writes every queued cookie to w. It must run before the status
// line is written.
func (s *Session) Flush(w http.ResponseWriter) {
	for _, c := range s.jar {
		http.SetCookie(w, c)
	}
}

func (s *Session) put(c *http.Cookie) {
	for i, queued := range s.jar {
		if queued.Name == c.Name {
			s.jar[i] = c
			return
		}
	}
	s.jar = append(s.jar, c)
}
