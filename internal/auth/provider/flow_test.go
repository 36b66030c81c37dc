package provider

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/pkg/cryptox"
)

var testKey = bytes.Repeat([]byte{7}, cryptox.CookieKeySize)

func requestWithCookies(target string, cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func queued(s *Session, name string) *http.Cookie {
	for _, c := range s.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestBeginAttempt(t *testing.T) {
	s := NewSession(httptest.NewRequest(http.MethodPost, "/outta/auth/google", nil), true)
	s.ReturnURL = "https://app.example/dash"

	state, verifier, err := BeginAttempt(s, "google", testKey)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(state, "-google"))
	require.GreaterOrEqual(t, len(verifier), 43)

	nonce := queued(s, CookieState)
	require.NotNil(t, nonce)
	require.Equal(t, StateParam(nonce.Value, "google"), state)
	require.Equal(t, int(TransientTTL.Seconds()), nonce.MaxAge)
	require.True(t, nonce.HttpOnly)
	require.True(t, nonce.Secure)
	require.Equal(t, http.SameSiteLaxMode, nonce.SameSite)

	sealed := queued(s, CookieCodeVerifier)
	require.NotNil(t, sealed)
	require.NotContains(t, sealed.Value, verifier)
	plain, err := cryptox.DecryptCookie(sealed.Value, testKey)
	require.NoError(t, err)
	require.Equal(t, verifier, plain)

	require.Equal(t, "https://app.example/dash", queued(s, CookieReturnURL).Value)
}

func TestBeginAttemptRequiresReturnURL(t *testing.T) {
	s := NewSession(httptest.NewRequest(http.MethodPost, "/outta/auth/google", nil), false)

	_, _, err := BeginAttempt(s, "google", testKey)
	require.ErrorIs(t, err, domain.ErrInvalidReturnURL)
	require.Empty(t, s.Cookies())
}

func TestCheckState(t *testing.T) {
	stateCookie := &http.Cookie{Name: CookieState, Value: "S"}

	cases := []struct {
		name   string
		query  string
		cookie *http.Cookie
		want   error
	}{
		{name: "exact match", query: "S-google", cookie: stateCookie},
		{name: "no cookie", query: "S-google", want: domain.ErrNoState},
		{name: "nonce only", query: "S", cookie: stateCookie, want: domain.ErrInvalidState},
		{name: "other provider", query: "S-github", cookie: stateCookie, want: domain.ErrInvalidState},
		{name: "prefix attack", query: "S-google-x", cookie: stateCookie, want: domain.ErrInvalidState},
		{name: "missing query", cookie: stateCookie, want: domain.ErrInvalidState},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tc.cookie != nil {
				cookies = append(cookies, tc.cookie)
			}
			s := NewSession(requestWithCookies("/cb?state="+tc.query, cookies...), false)

			err := CheckState(s, "google")
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCodeVerifier(t *testing.T) {
	sealed, err := cryptox.EncryptCookie("the-verifier", testKey)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		s := NewSession(requestWithCookies("/cb", &http.Cookie{Name: CookieCodeVerifier, Value: sealed}), false)
		v, err := CodeVerifier(s, testKey)
		require.NoError(t, err)
		require.Equal(t, "the-verifier", v)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := CodeVerifier(NewSession(requestWithCookies("/cb"), false), testKey)
		require.ErrorIs(t, err, domain.ErrNoCodeVerifier)
	})

	t.Run("tampered", func(t *testing.T) {
		last := "0"
		if strings.HasSuffix(sealed, "0") {
			last = "1"
		}
		tampered := sealed[:len(sealed)-1] + last
		s := NewSession(requestWithCookies("/cb", &http.Cookie{Name: CookieCodeVerifier, Value: tampered}), false)
		_, err := CodeVerifier(s, testKey)
		require.ErrorIs(t, err, domain.ErrInvalidCodeVerifier)
	})

	t.Run("wrong key", func(t *testing.T) {
		s := NewSession(requestWithCookies("/cb", &http.Cookie{Name: CookieCodeVerifier, Value: sealed}), false)
		_, err := CodeVerifier(s, bytes.Repeat([]byte{8}, cryptox.CookieKeySize))
		require.ErrorIs(t, err, domain.ErrInvalidCodeVerifier)
	})
}

func TestValidateReturnURL(t *testing.T) {
	cases := []struct {
		name, returnURL, origin string
		ok                      bool
	}{
		{"same origin", "https://app.example/dash", "https://app.example", true},
		{"same origin with port", "http://localhost:3000/x?y=1", "http://localhost:3000", true},
		{"host case", "https://APP.example/dash", "https://app.example", true},
		{"cross origin", "https://evil.example/dash", "https://app.example", false},
		{"scheme downgrade", "http://app.example/dash", "https://app.example", false},
		{"port differs", "https://app.example:8443/dash", "https://app.example", false},
		{"relative", "/dash", "https://app.example", false},
		{"javascript", "javascript:alert(1)", "https://app.example", false},
		{"protocol relative", "//evil.example/dash", "https://app.example", false},
		{"null origin", "https://app.example/dash", "null", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateReturnURL(tc.returnURL, tc.origin)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, domain.ErrInvalidReturnURL)
		})
	}
}

func TestStoredReturnURL(t *testing.T) {
	_, err := StoredReturnURL(NewSession(requestWithCookies("/cb"), false))
	require.ErrorIs(t, err, domain.ErrNoReturnURL)

	s := NewSession(requestWithCookies("/cb", &http.Cookie{Name: CookieReturnURL, Value: "javascript:alert(1)"}), false)
	_, err = StoredReturnURL(s)
	require.ErrorIs(t, err, domain.ErrNoReturnURL)

	s = NewSession(requestWithCookies("/cb", &http.Cookie{Name: CookieReturnURL, Value: "https://app.example/dash"}), false)
	got, err := StoredReturnURL(s)
	require.NoError(t, err)
	require.Equal(t, "https://app.example/dash", got)
}
