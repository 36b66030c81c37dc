// Package memory is an in-process member directory for development and
// tests. Like an external directory it does not enforce unique emails or
// provider ids.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/internal/auth/store"
)

type Store struct {
	mu      sync.RWMutex
	members []domain.Member
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

// NewStore returns an empty directory seeded with members.
func NewStore(members ...domain.Member) *Store {
	s := &Store{now: time.Now}
	for _, m := range members {
		m.Email = domain.NormalizeEmail(m.Email)
		s.members = append(s.members, m)
	}
	return s
}

func (s *Store) Members() store.Members         { return s }
func (s *Store) ApplyMigrations() error         { return nil }
func (s *Store) Close() error                   { return nil }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) FindByProviderID(_ context.Context, provider, subject string) ([]domain.Member, error) {
	if provider != domain.ProviderGoogle {
		return nil, store.ErrUnknownProvider
	}
	if subject == "" {
		return nil, nil
	}
	return s.filter(func(m domain.Member) bool { return m.ProviderSubject(provider) == subject }), nil
}

func (s *Store) FindByEmail(_ context.Context, email string) ([]domain.Member, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return s.filter(func(m domain.Member) bool { return m.Email == email }), nil
}

func (s *Store) GetByID(_ context.Context, id string) (domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.members {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Member{}, store.ErrNotFound
}

func (s *Store) LinkProviderID(_ context.Context, memberID, provider, subject string) error {
	if provider != domain.ProviderGoogle {
		return store.ErrUnknownProvider
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.members {
		m := &s.members[i]
		if m.ID != memberID {
			continue
		}

		switch m.GoogleID {
		case subject:
			return nil
		case "":
			m.GoogleID = subject
			m.UpdatedAt = s.now().UTC()
			return nil
		default:
			return store.ErrProviderConflict
		}
	}
	return store.ErrNotFound
}

func (s *Store) CreateMember(_ context.Context, m domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.ContainsFunc(s.members, func(e domain.Member) bool { return e.ID == m.ID }) {
		return store.ErrAlreadyExists
	}

	now := s.now().UTC()
	m.Email = domain.NormalizeEmail(m.Email)
	m.CreatedAt, m.UpdatedAt = now, now
	s.members = append(s.members, m)
	return nil
}

func (s *Store) ListMembers(context.Context) ([]domain.Member, error) {
	out := s.filter(func(domain.Member) bool { return true })
	slices.SortFunc(out, func(a, b domain.Member) int { return strings.Compare(a.Email, b.Email) })
	return out, nil
}

func (s *Store) filter(keep func(domain.Member) bool) []domain.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Member
	for _, m := range s.members {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
