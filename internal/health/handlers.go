package health

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-perhiasan/internal/common"
	"github.com/noah-isme/backend-perhiasan/internal/goldprice"
)

// ErrNotConfigured marks an optional dependency that is not wired.
var ErrNotConfigured = errors.New("not configured")

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles readiness, flipped off while the server drains.
func SetReady(v bool) { ready.Store(v) }

// Checker represents dependencies that can be checked for readiness.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// GoldSnapshot exposes the cached gold price without resolving it.
type GoldSnapshot interface {
	Snapshot(ctx context.Context) (goldprice.Entry, bool)
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker      Checker
	Gold         GoldSnapshot
	DBTimeout    time.Duration
	RedisTimeout time.Duration
	Now          func() time.Time
}

type goldStatus struct {
	Source    goldprice.Source `json:"source"`
	UpdatedAt time.Time        `json:"updated_at"`
	AgeSecs   int64            `json:"age_seconds"`
}

type readyResponse struct {
	Status    string      `json:"status"`
	DB        string      `json:"db"`
	Redis     string      `json:"redis"`
	GoldPrice *goldStatus `json:"gold_price,omitempty"`
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency checks. Redis is optional: an
// unconfigured client reports "disabled" without failing readiness. The gold
// price entry is informational only since pricing degrades to the fallback.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, readyResponse{Status: "shutting_down"})
		return
	}
	if h.Checker == nil {
		common.JSON(w, http.StatusServiceUnavailable, readyResponse{Status: "unavailable"})
		return
	}
	ctx := r.Context()
	resp := readyResponse{Status: "ok", DB: "ok", Redis: "ok"}
	if err := h.Checker.PingDB(ctx, h.dbTimeout()); err != nil {
		resp.DB = err.Error()
		resp.Status = "degraded"
	}
	if err := h.Checker.PingRedis(ctx, h.redisTimeout()); err != nil {
		if errors.Is(err, ErrNotConfigured) {
			resp.Redis = "disabled"
		} else {
			resp.Redis = err.Error()
			resp.Status = "degraded"
		}
	}
	if h.Gold != nil {
		if entry, ok := h.Gold.Snapshot(ctx); ok {
			resp.GoldPrice = &goldStatus{
				Source:    entry.Source,
				UpdatedAt: entry.Timestamp,
				AgeSecs:   int64(h.now().Sub(entry.Timestamp) / time.Second),
			}
		}
	}
	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	common.JSON(w, status, resp)
}

func (h Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h Handler) dbTimeout() time.Duration {
	if h.DBTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.DBTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}

// Deps pings a pgx pool and an optional Redis client.
type Deps struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
}

func (d Deps) PingDB(ctx context.Context, timeout time.Duration) error {
	if d.DB == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.DB.Ping(ctx)
}

func (d Deps) PingRedis(ctx context.Context, timeout time.Duration) error {
	if d.Redis == nil {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(ctx).Err()
}
