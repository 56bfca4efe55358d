package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/roles/domain"
)

// ProfileRepo persists the user-profile mirror in Postgres.
type ProfileRepo struct {
	db *pgxpool.Pool
}

func NewProfileRepo(db *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// EnsureSchema creates the mirror table when it does not exist yet.
func (r *ProfileRepo) EnsureSchema(ctx context.Context) error {
	const q = `
create table if not exists user_profiles (
  uid          text primary key,
  email        text not null default '',
  display_name text not null default '',
  role         text not null default 'user',
  created_at   timestamptz not null default now(),
  updated_at   timestamptz not null default now()
);
`
	if _, err := r.db.Exec(ctx, q); err != nil {
		return fmt.Errorf("ensure user_profiles schema: %w", err)
	}
	return nil
}

// Ensure upserts the profile row for an identity, preserving the stored
// role on conflict. Safe to call on every sign-in.
func (r *ProfileRepo) Ensure(ctx context.Context, uid, email, displayName string) error {
	if uid == "" {
		return domain.ErrMissingUserID
	}

	const q = `
insert into user_profiles (uid, email, display_name, updated_at)
values ($1, $2, $3, now())
on conflict (uid) do update
set
  email = case when excluded.email <> '' then excluded.email else user_profiles.email end,
  display_name = case when excluded.display_name <> '' then excluded.display_name else user_profiles.display_name end,
  updated_at = now();
`
	if _, err := r.db.Exec(ctx, q, uid, email, displayName); err != nil {
		return fmt.Errorf("ensure profile %s: %w", uid, err)
	}
	return nil
}

// UpsertRole writes the mirrored role, creating the row if the first-seen
// hook never ran for this identity.
func (r *ProfileRepo) UpsertRole(ctx context.Context, uid string, role auth.Role) error {
	if uid == "" {
		return domain.ErrMissingUserID
	}

	const q = `
insert into user_profiles (uid, role, updated_at)
values ($1, $2, now())
on conflict (uid) do update
set role = excluded.role, updated_at = now();
`
	if _, err := r.db.Exec(ctx, q, uid, string(role)); err != nil {
		return fmt.Errorf("upsert role for %s: %w", uid, err)
	}
	return nil
}

// Get returns the mirrored profile, or ErrUserNotFound.
func (r *ProfileRepo) Get(ctx context.Context, uid string) (*domain.Profile, error) {
	const q = `
select uid, email, display_name, role, created_at, updated_at
from user_profiles
where uid = $1;
`
	var p domain.Profile
	err := r.db.QueryRow(ctx, q, uid).Scan(
		&p.UID, &p.Email, &p.DisplayName, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", uid, err)
	}
	return &p, nil
}
