package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/internal/auth/metrics"
	"github.com/outta-ai/outta-auth/internal/auth/store"
	"github.com/outta-ai/outta-auth/pkg/slogx"
)

// ErrDuplicateMember is a directory integrity fault: one identity key
// matched more than one member.
var ErrDuplicateMember = errors.New("duplicate member")

// MemberService maps provider identities onto directory members. It never
// creates members.
type MemberService struct {
	Store   store.Store
	Metrics *metrics.Metrics
}

// ResolveForSignIn finds the member for a fresh sign-in. A provider-id match
// wins; otherwise a unique email match is used and the provider id is linked
// to it. Errors are *domain.AuthError.
func (s *MemberService) ResolveForSignIn(ctx context.Context, id domain.Identity) (domain.Member, error) {
	l := slogx.FromContext(ctx).With(slog.String("provider", id.Provider))
	members := s.Store.Members()

	// Both lookups run before either result is used so a duplicate on
	// either key fails closed.
	byProvider, err := members.FindByProviderID(ctx, id.Provider, id.Subject)
	if err != nil {
		return domain.Member{}, domain.ErrInternal.WithCause(fmt.Errorf("find by provider id: %w", err))
	}
	byEmail, err := members.FindByEmail(ctx, id.Email)
	if err != nil {
		return domain.Member{}, domain.ErrInternal.WithCause(fmt.Errorf("find by email: %w", err))
	}

	if len(byProvider) > 1 {
		l.Error("multiple members share a provider id", slog.Int("count", len(byProvider)))
		s.Metrics.Resolution(metrics.ResolveDuplicate)
		return domain.Member{}, domain.ErrInternal.WithCause(fmt.Errorf("%w: provider id", ErrDuplicateMember))
	}
	if len(byEmail) > 1 {
		l.Error("multiple members share an email", slog.Int("count", len(byEmail)))
		s.Metrics.Resolution(metrics.ResolveDuplicate)
		return domain.Member{}, domain.ErrInternal.WithCause(fmt.Errorf("%w: email", ErrDuplicateMember))
	}

	if len(byProvider) == 1 {
		s.Metrics.Resolution(metrics.ResolveByProviderID)
		return byProvider[0], nil
	}

	if len(byEmail) == 0 {
		s.Metrics.Resolution(metrics.ResolveNoUser)
		return domain.Member{}, domain.ErrNoUser
	}

	member := byEmail[0]
	if existing := member.ProviderSubject(id.Provider); existing != "" {
		// The email's member is bound to a different account at this provider.
		l.Warn("email matches a member linked to another provider account", slog.String("member_id", member.ID))
		s.Metrics.Resolution(metrics.ResolveMismatch)
		return domain.Member{}, domain.ErrInvalidUser
	}

	if err := members.LinkProviderID(ctx, member.ID, id.Provider, id.Subject); err != nil {
		if errors.Is(err, store.ErrProviderConflict) {
			s.Metrics.Resolution(metrics.ResolveMismatch)
			return domain.Member{}, domain.ErrInvalidUser
		}
		return domain.Member{}, domain.ErrInternal.WithCause(fmt.Errorf("link provider id: %w", err))
	}

	l.Info("linked provider identity to member", slog.String("member_id", member.ID))
	s.Metrics.Resolution(metrics.ResolveLinkedEmail)

	return member.WithProviderSubject(id.Provider, id.Subject), nil
}

// ResolveForRefresh re-resolves the member behind a refreshed provider
// session. Only the provider id is consulted, and the result must be the
// member the refresh token was minted for.
func (s *MemberService) ResolveForRefresh(ctx context.Context, id domain.Identity, memberID string) (domain.Member, error) {
	l := slogx.FromContext(ctx).With(slog.String("provider", id.Provider))

	found, err := s.Store.Members().FindByProviderID(ctx, id.Provider, id.Subject)
	if err != nil {
		return domain.Member{}, domain.ErrInternal.WithCause(fmt.Errorf("find by provider id: %w", err))
	}

	switch len(found) {
	case 0:
		s.Metrics.Resolution(metrics.ResolveNoUser)
		return domain.Member{}, domain.ErrNoUser
	case 1:
	default:
		l.Error("multiple members share a provider id", slog.Int("count", len(found)))
		s.Metrics.Resolution(metrics.ResolveDuplicate)
		return domain.Member{}, domain.ErrInternal.WithCause(fmt.Errorf("%w: provider id", ErrDuplicateMember))
	}

	if found[0].ID != memberID {
		l.Warn("refresh token member does not match provider identity",
			slog.String("member_id", memberID),
			slog.String("resolved_id", found[0].ID),
		)
		s.Metrics.Resolution(metrics.ResolveMismatch)
		return domain.Member{}, domain.ErrInvalidUser
	}

	s.Metrics.Resolution(metrics.ResolveByProviderID)
	return found[0], nil
}
