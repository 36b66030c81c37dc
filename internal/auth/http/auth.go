package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/internal/auth/metrics"
	"github.com/outta-ai/outta-auth/internal/auth/provider"
	"github.com/outta-ai/outta-auth/internal/auth/service"
	"github.com/outta-ai/outta-auth/pkg/cryptox"
	"github.com/outta-ai/outta-auth/pkg/httpx"
	"github.com/outta-ai/outta-auth/pkg/slogx"
)

// LogoutTokenHeader must repeat the logout token query parameter.
const LogoutTokenHeader = "X-Outta-Token"

const maxBodyBytes = 8 << 10

// AuthHandler dispatches sign-in, callback and refresh to the registered
// providers and owns logout.
type AuthHandler struct {
	Providers     *provider.Registry
	Sessions      *service.SessionService
	Metrics       *metrics.Metrics
	SecureCookies bool
}

type signInRequest struct {
	ReturnURL string `json:"returnUrl"`
}

// HandleSignIn handles POST /outta/auth/{provider}.
//
// Body: {"returnUrl": "https://app.example/dash"}. The return URL must share
// the request's Origin. Responds {"result": true, "data": "<authorization url>"}.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("provider")

	var body signInRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil || body.ReturnURL == "" {
		h.fail(w, r, "sign_in", name, domain.ErrInvalidBody.WithCause(err))
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		h.fail(w, r, "sign_in", name, domain.ErrNoOrigin)
		return
	}

	if err := provider.ValidateReturnURL(body.ReturnURL, origin); err != nil {
		h.fail(w, r, "sign_in", name, err)
		return
	}

	p, err := h.Providers.Get(name)
	if err != nil {
		h.fail(w, r, "sign_in", name, err)
		return
	}

	s := provider.NewSession(r, h.SecureCookies)
	s.ReturnURL = body.ReturnURL

	authURL, err := p.SignIn(ctx, s)
	if err != nil {
		// Nothing queued by a failed attempt is sent.
		h.fail(w, r, "sign_in", name, err)
		return
	}

	s.Flush(w)
	h.Metrics.Flow("sign_in", name, "ok")
	httpx.WriteResult(w, http.StatusOK, authURL)
}

// HandleCallback handles GET /outta/auth/{provider}/callback. On success it
// redirects to the return URL stored at sign-in.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("provider")
	s := provider.NewSession(r, h.SecureCookies)

	p, err := h.Providers.Get(name)
	if err != nil {
		s.ClearTransient()
		s.Flush(w)
		h.fail(w, r, "callback", name, err)
		return
	}

	res, err := p.Callback(ctx, s)
	s.Flush(w)
	if err != nil {
		h.fail(w, r, "callback", name, err)
		return
	}

	slogx.FromContext(ctx).Info("member signed in",
		slog.String("provider", name),
		slog.String("member_id", res.Member.ID),
	)
	h.Metrics.Flow("callback", name, "ok")

	httpx.NoCache(w)
	http.Redirect(w, r, res.ReturnURL, http.StatusFound)
}

// HandleRefresh handles GET /outta/auth/refresh. The refresh cookie names
// the provider that renews the session.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := provider.NewSession(r, h.SecureCookies)

	raw := s.Cookie(provider.CookieRefreshToken)
	if raw == "" {
		h.fail(w, r, "refresh", "", domain.ErrNoRefreshToken)
		return
	}

	claims, err := h.Sessions.VerifyRefresh(raw)
	if err != nil {
		h.fail(w, r, "refresh", "", domain.ErrInvalidRefreshToken.WithCause(err))
		return
	}

	name := claims.Authentication.Provider
	p, err := h.Providers.Get(name)
	if err != nil {
		h.fail(w, r, "refresh", name, domain.ErrInvalidRefreshToken.WithCause(err))
		return
	}

	res, err := p.Refresh(ctx, s, claims)
	if err != nil {
		// The provider no longer vouches for this member; end the session.
		if errors.Is(err, domain.ErrNoUser) || errors.Is(err, domain.ErrInvalidUser) || errors.Is(err, domain.ErrInvalidRefreshToken) {
			s.ClearSessionCookies()
		}
		s.Flush(w)
		h.fail(w, r, "refresh", name, err)
		return
	}

	s.Flush(w)
	slogx.FromContext(ctx).Debug("session refreshed", slog.String("member_id", res.Member.ID))
	h.Metrics.Flow("refresh", name, "ok")
	httpx.WriteResult(w, http.StatusOK, nil)
}

// HandleLogout handles POST /outta/auth/logout?token=... The same token
// must be sent in the X-Outta-Token header, which a cross-site form cannot
// set.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if !cryptox.TokensEqual(r.URL.Query().Get("token"), r.Header.Get(LogoutTokenHeader)) {
		h.fail(w, r, "logout", "", domain.ErrInvalidLogoutToken)
		return
	}

	s := provider.NewSession(r, h.SecureCookies)
	s.ClearSessionCookies()
	s.ClearCookie(provider.CookieReturnURL)
	s.Flush(w)

	h.Metrics.Flow("logout", "", "ok")
	httpx.NoCache(w)
	w.WriteHeader(http.StatusOK)
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, flow, providerName string, err error) {
	ae := writeError(w, r, err)
	h.Metrics.Flow(flow, providerName, ae.Code)
}
