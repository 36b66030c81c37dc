package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token.
// Use it wherever a credential needs to be identified (logs, metrics labels)
// without revealing the credential itself.
//
// The fingerprint is returned as a base64url-encoded string (43 chars).
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// TokensEqual compares two caller-supplied tokens in constant time. Empty
// tokens never match.
func TokensEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	// Hash first so the comparison time doesn't depend on the input lengths.
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
