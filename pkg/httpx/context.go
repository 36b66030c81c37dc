package httpx

import (
	"context"

	"github.com/outta-ai/outta-auth/pkg/jwtx"
)

type ctxKey string

const ctxKeyAccess ctxKey = "access_claims"

// WithAccessClaims stores verified access claims on ctx.
func WithAccessClaims(ctx context.Context, c jwtx.AccessClaims) context.Context {
	return context.WithValue(ctx, ctxKeyAccess, c)
}

// AccessClaimsFromContext returns the claims stored by CookieAuthn.
func AccessClaimsFromContext(ctx context.Context) (jwtx.AccessClaims, bool) {
	c, ok := ctx.Value(ctxKeyAccess).(jwtx.AccessClaims)
	return c, ok
}

// MemberIDFromContext returns the authenticated member id, or "".
func MemberIDFromContext(ctx context.Context) string {
	c, ok := AccessClaimsFromContext(ctx)
	if !ok {
		return ""
	}
	return c.Member.ID
}
