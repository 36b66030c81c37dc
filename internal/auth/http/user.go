package http

import (
	"net/http"

	"github.com/outta-ai/outta-auth/pkg/httpx"
)

// UserHandler serves the signed-in member's own profile.
type UserHandler struct{}

// ServeHTTP handles GET /outta/user/me. Responds with the member summary
// from the access token: {"result": true, "data": {"id": "...", "name": "..."}}.
func (h *UserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.AccessClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "no_token", "No Token")
		return
	}

	httpx.WriteResult(w, http.StatusOK, claims.Member)
}
