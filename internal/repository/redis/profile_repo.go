// Package redis stores profiles as Redis hashes.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/and161185/labrat/internal/errs"
	"github.com/and161185/labrat/internal/model"
	"github.com/and161185/labrat/internal/repository"
)

// Config holds Redis connection settings.
type Config struct {
	// URL is the Redis connection URL (e.g. redis://localhost:6379/0).
	URL          string
	PoolSize     int
	MinIdleConns int
}

// DefaultConfig returns defaults for a local Redis.
func DefaultConfig() Config {
	return Config{URL: "redis://localhost:6379", PoolSize: 10, MinIdleConns: 2}
}

// ProfileRepo implements ProfileRepository on a Redis client.
type ProfileRepo struct {
	client *redis.Client
	now    func() time.Time
}

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*ProfileRepo, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *ProfileRepo {
	return &ProfileRepo{client: client, now: time.Now}
}

// Close closes the Redis connection.
func (r *ProfileRepo) Close() error { return r.client.Close() }

// Upsert writes the profile hash. With merge only non-empty fields are
// written; role and creation time are filled in only when absent.
func (r *ProfileRepo) Upsert(ctx context.Context, p *model.Profile, merge bool) error {
	key := profileKey(p.UserID)
	created := p.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	createdStr := created.UTC().Format(time.RFC3339Nano)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if !merge {
			role := p.Role
			if role == "" {
				role = model.RolePlayer
			}
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key,
				fieldUsername, p.Username,
				fieldEmail, p.Email,
				fieldRole, string(role),
				fieldCreatedAt, createdStr,
			)
			return nil
		}

		var fields []any
		if p.Username != "" {
			fields = append(fields, fieldUsername, p.Username)
		}
		if p.Email != "" {
			fields = append(fields, fieldEmail, p.Email)
		}
		if p.Role != "" {
			fields = append(fields, fieldRole, string(p.Role))
		}
		if len(fields) > 0 {
			pipe.HSet(ctx, key, fields...)
		}
		pipe.HSetNX(ctx, key, fieldRole, string(model.RolePlayer))
		pipe.HSetNX(ctx, key, fieldCreatedAt, createdStr)
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.UserID, err)
	}
	return nil
}

// Get reads a profile hash.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (*model.Profile, error) {
	vals, err := r.client.HGetAll(ctx, profileKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, errs.ErrNotFound
	}

	p := &model.Profile{
		UserID:   userID,
		Username: vals[fieldUsername],
		Email:    vals[fieldEmail],
		Role:     model.Role(vals[fieldRole]),
	}
	if s := vals[fieldCreatedAt]; s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("profile %s: bad %s: %w", userID, fieldCreatedAt, err)
		}
		p.CreatedAt = t
	}
	return p, nil
}
