package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/labrat/internal/errs"
	"github.com/and161185/labrat/internal/model"
	"github.com/and161185/labrat/internal/repository"
)

const upsertOverwriteSQL = `
INSERT INTO profiles (user_id, username, email, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (user_id) DO UPDATE
SET username = EXCLUDED.username,
    email = EXCLUDED.email,
    role = EXCLUDED.role,
    created_at = EXCLUDED.created_at,
    updated_at = now()`

// Empty values mean "not specified": the stored column is kept.
const upsertMergeSQL = `
INSERT INTO profiles (user_id, username, email, role, created_at, updated_at)
VALUES ($1, $2, $3, COALESCE(NULLIF($4::text, ''), 'player'), $5, now())
ON CONFLICT (user_id) DO UPDATE
SET username = COALESCE(NULLIF(EXCLUDED.username, ''), profiles.username),
    email = COALESCE(NULLIF(EXCLUDED.email, ''), profiles.email),
    role = CASE WHEN $4::text = '' THEN profiles.role ELSE EXCLUDED.role END,
    updated_at = now()`

const selectProfileSQL = `
SELECT user_id, username, email, role, created_at
FROM profiles WHERE user_id=$1`

// ProfileRepo implements ProfileRepository using PostgreSQL.
type ProfileRepo struct {
	db  *DB
	now func() time.Time
}

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// NewProfileRepo constructs a profile repository.
func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db, now: time.Now} }

// Upsert inserts the profile or updates it in place.
func (r *ProfileRepo) Upsert(ctx context.Context, p *model.Profile, merge bool) error {
	created := p.CreatedAt
	if created.IsZero() {
		created = r.now().UTC()
	}

	q, role := upsertOverwriteSQL, string(p.Role)
	if merge {
		q = upsertMergeSQL
	} else if role == "" {
		role = string(model.RolePlayer)
	}

	if _, err := r.db.Pool.Exec(ctx, q, p.UserID, p.Username, p.Email, role, created); err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.UserID, err)
	}
	return nil
}

// Get selects a profile by user ID.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (*model.Profile, error) {
	var (
		p    model.Profile
		role string
	)
	err := r.db.Pool.QueryRow(ctx, selectProfileSQL, userID).Scan(&p.UserID, &p.Username, &p.Email, &role, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	p.Role = model.Role(role)
	return &p, nil
}
