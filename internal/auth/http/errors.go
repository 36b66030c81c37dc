package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/pkg/httpx"
	"github.com/outta-ai/outta-auth/pkg/slogx"
)

// writeError renders err as the error envelope. Only the fixed code and
// message of a *domain.AuthError reach the client; anything else becomes
// internal_error. The cause is logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) *domain.AuthError {
	var ae *domain.AuthError
	if !errors.As(err, &ae) {
		ae = domain.ErrInternal.WithCause(err)
	}

	log := slogx.FromContext(r.Context())
	attrs := []any{slog.String("code", ae.Code), slog.Int("status", ae.Status)}
	if ae.Cause != nil {
		attrs = append(attrs, slogx.Err(ae.Cause))
	}

	switch {
	case ae.Status >= http.StatusInternalServerError:
		log.Error("request failed", attrs...)
	default:
		log.Info("request rejected", attrs...)
	}

	httpx.WriteError(w, ae.Status, ae.Code, ae.Message)
	return ae
}
