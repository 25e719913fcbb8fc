package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/labrat/internal/errs"
	"github.com/and161185/labrat/internal/model"
	"github.com/and161185/labrat/internal/repository"
)

// ProfileService mirrors user records into the document store.
type ProfileService interface {
	// UpsertProfile writes the profile keyed by userID. With merge only the
	// non-empty arguments replace stored values.
	UpsertProfile(ctx context.Context, userID, username, email string, role model.Role, merge bool) error
	// GetProfile returns the stored profile.
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
}

type ProfileServiceImpl struct {
	repo repository.ProfileRepository
	log  *zap.Logger
	now  func() time.Time
}

// NewProfileService constructs ProfileService over a repository.
func NewProfileService(repo repository.ProfileRepository, log *zap.Logger) *ProfileServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileServiceImpl{repo: repo, log: log, now: time.Now}
}

// UpsertProfile validates the key and delegates to the repository.
// A full overwrite always carries a role; creation time is only kept by
// the store when the profile is new.
func (s *ProfileServiceImpl) UpsertProfile(ctx context.Context, userID, username, email string, role model.Role, merge bool) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", errs.ErrMissingFields)
	}
	if !merge && role == "" {
		role = model.RolePlayer
	}

	p := &model.Profile{
		UserID:    userID,
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, p, merge); err != nil {
		s.log.Warn("profile upsert failed", zap.String("user_id", userID), zap.Bool("merge", merge), zap.Error(err))
		return fmt.Errorf("%w: %w", errs.ErrStorage, err)
	}
	s.log.Debug("profile upserted", zap.String("user_id", userID), zap.Bool("merge", merge))
	return nil
}

// GetProfile reads a profile; ErrNotFound passes through unchanged.
func (s *ProfileServiceImpl) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", errs.ErrMissingFields)
	}
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errs.ErrStorage, err)
	}
	return p, nil
}
