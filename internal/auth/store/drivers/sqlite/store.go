package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/internal/auth/store"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// NewStore opens the database at dsn. Call ApplyMigrations before use.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// A single writer keeps ":memory:" databases shared and avoids
	// SQLITE_BUSY on the link update.
	db.SetMaxOpenConns(1)

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Members() store.Members { return &membersRepo{db: s.db, now: s.now} }

const memberColumns = `id, name, email, google_id, created_at, updated_at`

type membersRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *membersRepo) FindByProviderID(ctx context.Context, provider, subject string) ([]domain.Member, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}
	if subject == "" {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+memberColumns+` FROM members WHERE `+column+` = ?`, subject)
}

func (r *membersRepo) FindByEmail(ctx context.Context, email string) ([]domain.Member, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+memberColumns+` FROM members WHERE email = ?`, email)
}

func (r *membersRepo) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err != nil {
		return domain.Member{}, mapNotFound(err)
	}
	return m, nil
}

func (r *membersRepo) LinkProviderID(ctx context.Context, memberID, provider, subject string) error {
	column, err := providerColumn(provider)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET `+column+` = ?, updated_at = ?
		 WHERE id = ? AND (`+column+` IS NULL OR `+column+` = ?)`,
		subject, r.now().UTC().Unix(), memberID, subject,
	)
	if err != nil {
		return mapConstraint(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Nothing updated: either the member is gone or already linked elsewhere.
	if _, err := r.GetByID(ctx, memberID); err != nil {
		return err
	}
	return store.ErrProviderConflict
}

func (r *membersRepo) CreateMember(ctx context.Context, m domain.Member) error {
	now := r.now().UTC().Unix()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, domain.NormalizeEmail(m.Email), mapStringNull(m.GoogleID), now, now,
	)
	return mapConstraint(err)
}

func (r *membersRepo) ListMembers(ctx context.Context) ([]domain.Member, error) {
	return r.query(ctx, `SELECT `+memberColumns+` FROM members ORDER BY email`)
}

func (r *membersRepo) query(ctx context.Context, q string, args ...any) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (domain.Member, error) {
	var (
		m                  domain.Member
		googleID           sql.NullString
		createdAt, updated int64
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &googleID, &createdAt, &updated); err != nil {
		return domain.Member{}, err
	}

	m.GoogleID = mapNullString(googleID)
	m.CreatedAt = time.Unix(createdAt, 0).UTC()
	m.UpdatedAt = time.Unix(updated, 0).UTC()
	return m, nil
}

func providerColumn(provider string) (string, error) {
	switch provider {
	case domain.ProviderGoogle:
		return "google_id", nil
	default:
		return "", fmt.Errorf("%w: %q", store.ErrUnknownProvider, provider)
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint turns unique index violations into ErrAlreadyExists.
func mapConstraint(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
	}
	return err
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
