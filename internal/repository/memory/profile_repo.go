// Package memory is an in-process ProfileRepository for local runs and tests.
package memory

import (
	"context"
	"sync"

	"github.com/and161185/labrat/internal/errs"
	"github.com/and161185/labrat/internal/model"
	"github.com/and161185/labrat/internal/repository"
)

// ProfileRepo keeps profiles in a map.
type ProfileRepo struct {
	mu       sync.RWMutex
	profiles map[string]model.Profile
}

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// NewProfileRepo constructs an empty repository.
func NewProfileRepo() *ProfileRepo {
	return &ProfileRepo{profiles: map[string]model.Profile{}}
}

// Upsert replaces or merges the stored profile.
func (r *ProfileRepo) Upsert(_ context.Context, p *model.Profile, merge bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.profiles[p.UserID]
	if !merge || !exists {
		next := *p
		if next.Role == "" {
			next.Role = model.RolePlayer
		}
		r.profiles[p.UserID] = next
		return nil
	}

	if p.Username != "" {
		cur.Username = p.Username
	}
	if p.Email != "" {
		cur.Email = p.Email
	}
	if p.Role != "" {
		cur.Role = p.Role
	}
	r.profiles[p.UserID] = cur
	return nil
}

// Get returns a copy of the stored profile.
func (r *ProfileRepo) Get(_ context.Context, userID string) (*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}
