package domain

import (
	"fmt"
	"net/http"
)

// AuthError is a client-facing failure with a fixed status, code and
// message. Cause is kept for logs only and never serialized.
type AuthError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return e.Code + ": " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Cause }

// Is matches any AuthError with the same code and status, so wrapped copies
// still compare equal to the predefined values below.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Code == e.Code && t.Status == e.Status
}

// WithCause returns a copy of e carrying cause.
func (e *AuthError) WithCause(cause error) *AuthError {
	c := *e
	c.Cause = cause
	return &c
}

// WithMessage returns a copy of e with a more specific message.
func (e *AuthError) WithMessage(format string, args ...any) *AuthError {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

func newAuthError(status int, code, message string) *AuthError {
	return &AuthError{Status: status, Code: code, Message: message}
}

// Sign-in request errors.
var (
	ErrInvalidBody         = newAuthError(http.StatusBadRequest, "invalid_body", "Invalid Body")
	ErrNoOrigin            = newAuthError(http.StatusBadRequest, "no_origin", "No Origin")
	ErrInvalidReturnURL    = newAuthError(http.StatusBadRequest, "invalid_return_url", "Invalid Return URL")
	ErrUnsupportedProvider = newAuthError(http.StatusBadRequest, "unsupported_provider", "Unsupported Provider")
)

// Callback errors.
var (
	ErrNoState             = newAuthError(http.StatusBadRequest, "no_state", "No state found")
	ErrInvalidState        = newAuthError(http.StatusBadRequest, "invalid_state", "Invalid state")
	ErrNoCode              = newAuthError(http.StatusBadRequest, "no_code", "No code found")
	ErrNoCodeVerifier      = newAuthError(http.StatusBadRequest, "no_code_verifier", "No code verifier found")
	ErrInvalidCodeVerifier = newAuthError(http.StatusBadRequest, "invalid_code_verifier", "Invalid code verifier")
	ErrNoReturnURL         = newAuthError(http.StatusBadRequest, "no_return_url", "No return URL found")
)

// Refresh and logout errors.
var (
	ErrNoRefreshToken      = newAuthError(http.StatusBadRequest, "no_refresh_token", "No Refresh Token")
	ErrInvalidRefreshToken = newAuthError(http.StatusBadRequest, "invalid_refresh_token", "Invalid Refresh Token")
	ErrInvalidLogoutToken  = newAuthError(http.StatusBadRequest, "invalid_token", "Invalid Token")
)

// Identity and upstream errors.
var (
	ErrNoUser          = newAuthError(http.StatusUnauthorized, "no_user", "No user found")
	ErrInvalidUser     = newAuthError(http.StatusForbidden, "invalid_user", "Invalid user")
	ErrInternal        = newAuthError(http.StatusInternalServerError, "internal_error", "Internal Server Error occurred")
	ErrInvalidResponse = newAuthError(http.StatusBadGateway, "invalid_response", "Invalid response from provider")
)
