package app

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/outta-ai/outta-auth/pkg/cryptox"
	"github.com/outta-ai/outta-auth/pkg/jwtx"
)

// ErrSharedSecret is returned when the cookie and signing keys are equal.
var ErrSharedSecret = errors.New("TOKEN_SECRET and PUBLIC_TOKEN_SECRET must differ")

// Keys are the two secrets the service runs on.
type Keys struct {
	Cookie  []byte // AES-256-GCM key for the PKCE verifier cookie
	Signing []byte // HS256 key for access and refresh tokens
}

// LoadKeys decodes both secrets and rejects a configuration that uses the
// same key for cookie encryption and token signing.
func LoadKeys(cfg Config) (Keys, error) {
	cookie, err := cryptox.CookieKey(cfg.TokenSecret, cfg.TokenSecretHashed)
	if err != nil {
		return Keys{}, fmt.Errorf("TOKEN_SECRET: %w", err)
	}

	signing, err := hex.DecodeString(cfg.PublicTokenSecret)
	if err != nil || len(signing) != jwtx.MinKeySize {
		return Keys{}, fmt.Errorf("PUBLIC_TOKEN_SECRET: expected %d hex-encoded bytes: %w", jwtx.MinKeySize, jwtx.ErrWeakKey)
	}

	if bytes.Equal(cookie, signing) || cfg.TokenSecret == cfg.PublicTokenSecret {
		return Keys{}, ErrSharedSecret
	}

	return Keys{Cookie: cookie, Signing: signing}, nil
}
