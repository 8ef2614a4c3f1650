package goldprice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Source records how a cached price was obtained.
type Source string

const (
	SourceOverride Source = "override"
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Entry is a resolved price per gram and the instant it was resolved.
type Entry struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
}

// Cache holds the single most recent Entry.
type Cache interface {
	Get(ctx context.Context) (Entry, bool)
	Set(ctx context.Context, e Entry) error
	Clear(ctx context.Context) error
}

// MemoryCache keeps the entry in process memory.
type MemoryCache struct {
	mu    sync.RWMutex
	entry *Entry
}

// NewMemoryCache constructs an empty in-process cache.
func NewMemoryCache() *MemoryCache { return &MemoryCache{} }

func (c *MemoryCache) Get(context.Context) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return Entry{}, false
	}
	return *c.entry, true
}

func (c *MemoryCache) Set(_ context.Context, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = &e
	return nil
}

func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
	return nil
}

// DefaultRedisKey is where RedisCache stores the entry.
const DefaultRedisKey = "goldprice:current"

// RedisCache shares the entry between API replicas and the worker. Freshness
// is decided from the stored timestamp, not from the key TTL; the TTL only
// keeps abandoned keys from lingering.
type RedisCache struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func (c RedisCache) key() string {
	if c.Key == "" {
		return DefaultRedisKey
	}
	return c.Key
}

// Get reports a miss on any failure; use Lookup to tell the two apart.
func (c RedisCache) Get(ctx context.Context) (Entry, bool) {
	e, ok, _ := c.Lookup(ctx)
	return e, ok
}

// Lookup reads the entry. A missing key is (Entry{}, false, nil); an
// unreachable server or undecodable value returns an error.
func (c RedisCache) Lookup(ctx context.Context) (Entry, bool, error) {
	if c.Client == nil {
		return Entry{}, false, errors.New("goldprice: redis client not configured")
	}
	data, err := c.Client.Get(ctx, c.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("read gold price: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode gold price: %w", err)
	}
	return e, true, nil
}

func (c RedisCache) Set(ctx context.Context, e Entry) error {
	if c.Client == nil {
		return errors.New("goldprice: redis client not configured")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ttl := c.TTL
	if ttl > 0 {
		ttl *= 2
	}
	return c.Client.Set(ctx, c.key(), data, ttl).Err()
}

func (c RedisCache) Clear(ctx context.Context) error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Del(ctx, c.key()).Err()
}

// LayeredCache writes every entry to a process-local copy and to Redis.
// Reads prefer Redis so replicas agree, and fall back to the local copy while
// Redis is unreachable, so resolution keeps caching during an outage.
type LayeredCache struct {
	Local  *MemoryCache
	Shared RedisCache
	Logger zerolog.Logger
}

// NewLayeredCache returns a LayeredCache with an empty local copy.
func NewLayeredCache(shared RedisCache, logger zerolog.Logger) *LayeredCache {
	return &LayeredCache{Local: NewMemoryCache(), Shared: shared, Logger: logger}
}

// Get returns the newer of the shared and local entries. Entries written
// locally during an outage stay usable once Redis is back.
func (c *LayeredCache) Get(ctx context.Context) (Entry, bool) {
	shared, ok, err := c.Shared.Lookup(ctx)
	if err != nil {
		c.Logger.Warn().Err(err).Msg("shared gold price cache unavailable, using local copy")
		return c.Local.Get(ctx)
	}
	if !ok {
		return c.Local.Get(ctx)
	}
	if local, found := c.Local.Get(ctx); found && local.Timestamp.After(shared.Timestamp) {
		return local, true
	}
	_ = c.Local.Set(ctx, shared)
	return shared, true
}

// Set always updates the local copy; the returned error reports only the
// shared write.
func (c *LayeredCache) Set(ctx context.Context, e Entry) error {
	_ = c.Local.Set(ctx, e)
	return c.Shared.Set(ctx, e)
}

// Clear drops both copies.
func (c *LayeredCache) Clear(ctx context.Context) error {
	_ = c.Local.Clear(ctx)
	return c.Shared.Clear(ctx)
}
