package goldprice

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-perhiasan/internal/lock"
)

// DefaultRefreshLockKey guards refreshes across replicas.
const DefaultRefreshLockKey = "lock:goldprice:refresh"

// Locker runs fn only when no other process holds key.
type Locker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Refresher periodically re-resolves the gold price so the cache stays warm.
type Refresher struct {
	Provider *Provider
	Interval time.Duration
	Locker   Locker
	LockKey  string
	LockTTL  time.Duration
	Logger   zerolog.Logger
}

// RunOnce refreshes the price. When a Locker is set and another replica holds
// the lock the refresh is skipped.
func (r Refresher) RunOnce(ctx context.Context) error {
	refresh := func(ctx context.Context) error {
		q := r.Provider.Refresh(ctx)
		r.Logger.Info().Float64("price_per_gram", q.PricePerGram).Str("source", string(q.Source)).Msg("gold price refreshed")
		return nil
	}
	if r.Locker == nil {
		return refresh(ctx)
	}
	key := r.LockKey
	if key == "" {
		key = DefaultRefreshLockKey
	}
	ttl := r.LockTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	err := r.Locker.TryWithLock(ctx, key, ttl, refresh)
	if errors.Is(err, lock.ErrHeld) {
		r.Logger.Debug().Msg("gold price refresh already running elsewhere")
		return nil
	}
	return err
}

// Run refreshes immediately and then on every interval until ctx is done.
func (r Refresher) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultCacheTTL
	}
	r.tick(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r Refresher) tick(ctx context.Context) {
	if err := r.RunOnce(ctx); err != nil {
		r.Logger.Warn().Err(err).Msg("gold price refresh failed")
	}
}
