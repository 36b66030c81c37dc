package httpx

import (
	"net/http"

	"github.com/outta-ai/outta-auth/pkg/jwtx"
	"github.com/outta-ai/outta-auth/pkg/slogx"
)

// CookieAuthn verifies the access token carried in the named cookie. A
// missing cookie is 401 no_token; anything that fails verification is 403
// invalid_token.
func CookieAuthn(cookieName string, v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				WriteError(w, http.StatusUnauthorized, "no_token", "No Token")
				return
			}

			var claims jwtx.AccessClaims
			if err := v.Verify(cookie.Value, &claims, jwtx.ExpectAccess); err != nil {
				log.Warn("access token rejected", slogx.Err(err))
				WriteError(w, http.StatusForbidden, "invalid_token", "Invalid Token")
				return
			}

			ctx = slogx.With(WithAccessClaims(ctx, claims), "member_id", claims.Member.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
