package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-perhiasan/internal/obs"
)

// CategoriesKey holds the cached category list.
const CategoriesKey = "catalog:categories"

const defaultCacheTTL = 5 * time.Minute

// Cache keeps the category tree in Redis. Items are never cached because
// their price moves with the gold rate. A nil client or Cache is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns a Cache; ttl <= 0 means five minutes.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool { return c != nil && c.client != nil }

// Categories returns the cached list and whether it was present.
func (c *Cache) Categories(ctx context.Context) ([]Category, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, CategoriesKey).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		obs.IncCounter(obs.CatalogCacheTotal, "miss")
		return nil, false, nil
	case err != nil:
		obs.IncCounter(obs.CatalogCacheTotal, "error")
		return nil, false, fmt.Errorf("read categories: %w", err)
	}
	var rows []Category
	if err := json.Unmarshal(raw, &rows); err != nil {
		obs.IncCounter(obs.CatalogCacheTotal, "error")
		return nil, false, fmt.Errorf("decode categories: %w", err)
	}
	obs.IncCounter(obs.CatalogCacheTotal, "hit")
	return rows, true, nil
}

// PutCategories stores rows for the configured TTL.
func (c *Cache) PutCategories(ctx context.Context, rows []Category) error {
	if !c.enabled() {
		return nil
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, CategoriesKey, raw, c.ttl).Err()
}

// InvalidateCategories drops the list after any category write.
func (c *Cache) InvalidateCategories(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Del(ctx, CategoriesKey).Err()
}
