package domain

import (
	"strings"
	"time"
)

// ProviderGoogle is the only identity provider wired today.
const ProviderGoogle = "google"

// Member is an entry in the member directory. Members are provisioned out
// of band; sign-in only ever links a provider identity to an existing one.
type Member struct {
	ID       string
	Name     string
	Email    string
	GoogleID string // empty until first Google sign-in

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProviderSubject returns the member's linked subject for provider.
func (m Member) ProviderSubject(provider string) string {
	switch provider {
	case ProviderGoogle:
		return m.GoogleID
	default:
		return ""
	}
}

// WithProviderSubject returns a copy of m linked to subject at provider.
func (m Member) WithProviderSubject(provider, subject string) Member {
	switch provider {
	case ProviderGoogle:
		m.GoogleID = subject
	}
	return m
}

// NormalizeEmail is applied to every email before it is stored or compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity is what a provider asserts about the signed-in account.
type Identity struct {
	Provider string
	Subject  string // provider's stable account id
	Email    string
	Name     string
}
