package store

import (
	"context"
	"errors"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
)

var (
	ErrNotFound         = errors.New("store: not found")
	ErrAlreadyExists    = errors.New("store: already exists")
	ErrUnknownProvider  = errors.New("store: unknown provider")
	ErrProviderConflict = errors.New("store: member already linked to another provider identity")
)

// Store is the root data access interface. Concrete drivers (memory, sqlite,
// firestore) implement this.
type Store interface {
	Members() Members

	// ApplyMigrations brings the schema up to date. Schemaless drivers
	// return nil.
	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// Members is the member directory. The directory is not guaranteed to hold
// unique emails or provider ids, so the Find methods return every match and
// callers decide what multiplicity means.
type Members interface {
	// FindByProviderID returns members linked to subject at provider.
	FindByProviderID(ctx context.Context, provider, subject string) ([]domain.Member, error)

	// FindByEmail returns members with the normalized email.
	FindByEmail(ctx context.Context, email string) ([]domain.Member, error)

	// GetByID returns ErrNotFound when no member has id.
	GetByID(ctx context.Context, id string) (domain.Member, error)

	// LinkProviderID records subject as the member's identity at provider.
	// Relinking the same subject is a no-op; a different existing subject is
	// ErrProviderConflict.
	LinkProviderID(ctx context.Context, memberID, provider, subject string) error

	// CreateMember inserts m. The id is provided by the caller.
	CreateMember(ctx context.Context, m domain.Member) error

	// ListMembers returns every member ordered by email.
	ListMembers(ctx context.Context) ([]domain.Member, error)
}
