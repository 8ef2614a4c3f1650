package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-perhiasan/internal/goldprice"
	"github.com/noah-isme/backend-perhiasan/internal/health"
)

type stubChecker struct {
	dbErr    error
	redisErr error
}

func (s stubChecker) PingDB(context.Context, time.Duration) error    { return s.dbErr }
func (s stubChecker) PingRedis(context.Context, time.Duration) error { return s.redisErr }

type stubGold struct {
	entry goldprice.Entry
	ok    bool
}

func (s stubGold) Snapshot(context.Context) (goldprice.Entry, bool) { return s.entry, s.ok }

func ready(t *testing.T, h health.Handler) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr.Code, body
}

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReadyReportsGoldPriceAge(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	h := health.Handler{
		Checker: stubChecker{},
		Gold:    stubGold{ok: true, entry: goldprice.Entry{Price: 6400, Timestamp: now.Add(-2 * time.Hour), Source: goldprice.SourceLive}},
		Now:     func() time.Time { return now },
	}
	code, body := ready(t, h)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body["db"])
	gold := body["gold_price"].(map[string]any)
	require.Equal(t, "live", gold["source"])
	require.InDelta(t, 7200, gold["age_seconds"], 0)
}

func TestReadyRedisOptional(t *testing.T) {
	code, body := ready(t, health.Handler{Checker: stubChecker{redisErr: health.ErrNotConfigured}})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "disabled", body["redis"])
	require.NotContains(t, body, "gold_price")
}

func TestReadyFailure(t *testing.T) {
	code, body := ready(t, health.Handler{Checker: stubChecker{dbErr: errors.New("db down")}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "db down", body["db"])

	code, _ = ready(t, health.Handler{})
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReadinessAfterShutdown(t *testing.T) {
	h := health.Handler{Checker: stubChecker{}}
	health.SetReady(false)
	t.Cleanup(func() { health.SetReady(true) })

	code, body := ready(t, h)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "shutting_down", body["status"])
}

func TestDepsPingRedis(t *testing.T) {
	require.ErrorIs(t, health.Deps{}.PingRedis(context.Background(), time.Second), health.ErrNotConfigured)
	require.Error(t, health.Deps{}.PingDB(context.Background(), time.Second))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, health.Deps{Redis: client}.PingRedis(context.Background(), time.Second))
}
