// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/labrat/internal/model"
)

// ProfileRepository is the document store for user profiles keyed by user ID.
type ProfileRepository interface {
	// Upsert writes p. With merge=false the stored profile is replaced entirely.
	// With merge=true only non-empty fields of p are written; Role defaults to
	// "player" and CreatedAt is taken from p only when the profile is new.
	Upsert(ctx context.Context, p *model.Profile, merge bool) error
	// Get loads a profile by user ID.
	Get(ctx context.Context, userID string) (*model.Profile, error)
}
