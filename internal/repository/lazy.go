package repository

import (
	"context"
	"sync"

	"github.com/and161185/labrat/internal/model"
)

// Lazy defers opening a ProfileRepository until the first call, so
// callers that never touch profiles never dial the store. A failed open
// is retried on the next call.
type Lazy struct {
	mu   sync.Mutex
	open func(ctx context.Context) (ProfileRepository, error)
	repo ProfileRepository
}

var _ ProfileRepository = (*Lazy)(nil)

// NewLazy wraps open.
func NewLazy(open func(ctx context.Context) (ProfileRepository, error)) *Lazy {
	return &Lazy{open: open}
}

func (l *Lazy) get(ctx context.Context) (ProfileRepository, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.repo != nil {
		return l.repo, nil
	}
	r, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	l.repo = r
	return r, nil
}

// Upsert opens the store if needed and delegates.
func (l *Lazy) Upsert(ctx context.Context, p *model.Profile, merge bool) error {
	r, err := l.get(ctx)
	if err != nil {
		return err
	}
	return r.Upsert(ctx, p, merge)
}

// Get opens the store if needed and delegates.
func (l *Lazy) Get(ctx context.Context, userID string) (*model.Profile, error) {
	r, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, userID)
}
