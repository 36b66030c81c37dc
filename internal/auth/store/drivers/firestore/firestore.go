// Package firestore reads the member directory from a Google Cloud
// Firestore collection. Document ids are member ids.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/internal/auth/store"
)

// DefaultCollection holds member documents unless configured otherwise.
const DefaultCollection = "members"

// memberDoc is the document shape. Field names follow the directory's
// existing camelCase convention.
type memberDoc struct {
	Name      string    `firestore:"name"`
	Email     string    `firestore:"email"`
	GoogleID  string    `firestore:"googleId,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type Store struct {
	client     *firestore.Client
	collection string
}

var _ store.Store = (*Store)(nil)

// Config selects the Firestore project, database and collection.
type Config struct {
	ProjectID  string
	Database   string // empty or "(default)" for the default database
	Collection string
}

// NewStore connects to Firestore using application default credentials, or
// the emulator when FIRESTORE_EMULATOR_HOST is set.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore: projectID is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	var (
		client *firestore.Client
		err    error
	)
	if cfg.Database != "" && cfg.Database != "(default)" {
		client, err = firestore.NewClientWithDatabase(ctx, cfg.ProjectID, cfg.Database)
	} else {
		client, err = firestore.NewClient(ctx, cfg.ProjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("firestore: create client: %w", err)
	}

	return &Store{client: client, collection: cfg.Collection}, nil
}

func (s *Store) Members() store.Members { return s }

// ApplyMigrations is a no-op; Firestore is schemaless.
func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error { return s.client.Close() }

// Ping runs a one-document read against the collection.
func (s *Store) Ping(ctx context.Context) error {
	iter := s.client.Collection(s.collection).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore: ping: %w", err)
	}
	return nil
}

func (s *Store) FindByProviderID(ctx context.Context, provider, subject string) ([]domain.Member, error) {
	field, err := providerField(provider)
	if err != nil {
		return nil, err
	}
	if subject == "" {
		return nil, nil
	}
	return s.query(ctx, s.client.Collection(s.collection).Where(field, "==", subject))
}

func (s *Store) FindByEmail(ctx context.Context, email string) ([]domain.Member, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return s.query(ctx, s.client.Collection(s.collection).Where("email", "==", email))
}

func (s *Store) GetByID(ctx context.Context, id string) (domain.Member, error) {
	if id == "" {
		return domain.Member{}, store.ErrNotFound
	}

	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Member{}, store.ErrNotFound
		}
		return domain.Member{}, fmt.Errorf("firestore: get member: %w", err)
	}
	return toMember(snap)
}

func (s *Store) LinkProviderID(ctx context.Context, memberID, provider, subject string) error {
	field, err := providerField(provider)
	if err != nil {
		return err
	}
	ref := s.client.Collection(s.collection).Doc(memberID)

	// Read-check-write in a transaction so two first sign-ins can't race.
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return store.ErrNotFound
			}
			return err
		}

		m, err := toMember(snap)
		if err != nil {
			return err
		}

		switch m.ProviderSubject(provider) {
		case subject:
			return nil
		case "":
			return tx.Update(ref, []firestore.Update{
				{Path: field, Value: subject},
				{Path: "updatedAt", Value: firestore.ServerTimestamp},
			})
		default:
			return store.ErrProviderConflict
		}
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrProviderConflict) {
			return err
		}
		return fmt.Errorf("firestore: link provider: %w", err)
	}
	return nil
}

func (s *Store) CreateMember(ctx context.Context, m domain.Member) error {
	now := time.Now().UTC()
	_, err := s.client.Collection(s.collection).Doc(m.ID).Create(ctx, memberDoc{
		Name:      m.Name,
		Email:     domain.NormalizeEmail(m.Email),
		GoogleID:  m.GoogleID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("firestore: create member: %w", err)
	}
	return nil
}

func (s *Store) ListMembers(ctx context.Context) ([]domain.Member, error) {
	out, err := s.query(ctx, s.client.Collection(s.collection).Query)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b domain.Member) int { return strings.Compare(a.Email, b.Email) })
	return out, nil
}

// NormalizeEmails rewrites every stored email that is not in normalized
// form and returns how many documents changed. Lookups only match
// normalized emails, so documents written by other tools must pass
// through this once.
func (s *Store) NormalizeEmails(ctx context.Context) (int, error) {
	iter := s.client.Collection(s.collection).Documents(ctx)
	defer iter.Stop()

	changed := 0
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return changed, nil
		}
		if err != nil {
			return changed, fmt.Errorf("firestore: scan members: %w", err)
		}

		m, err := toMember(snap)
		if err != nil {
			return changed, err
		}
		normalized := domain.NormalizeEmail(m.Email)
		if normalized == m.Email {
			continue
		}

		_, err = snap.Ref.Update(ctx, []firestore.Update{
			{Path: "email", Value: normalized},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
		if err != nil {
			return changed, fmt.Errorf("firestore: normalize %s: %w", snap.Ref.ID, err)
		}
		changed++
	}
}

func (s *Store) query(ctx context.Context, q firestore.Query) ([]domain.Member, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []domain.Member
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore: query members: %w", err)
		}

		m, err := toMember(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func toMember(snap *firestore.DocumentSnapshot) (domain.Member, error) {
	var doc memberDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Member{}, fmt.Errorf("firestore: decode member %s: %w", snap.Ref.ID, err)
	}

	return domain.Member{
		ID:        snap.Ref.ID,
		Name:      doc.Name,
		Email:     doc.Email,
		GoogleID:  doc.GoogleID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func providerField(provider string) (string, error) {
	switch provider {
	case domain.ProviderGoogle:
		return "googleId", nil
	default:
		return "", fmt.Errorf("%w: %q", store.ErrUnknownProvider, provider)
	}
}
