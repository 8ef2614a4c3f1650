package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-perhiasan/internal/config"
	"github.com/noah-isme/backend-perhiasan/internal/goldprice"
	"github.com/noah-isme/backend-perhiasan/internal/lock"
	"github.com/noah-isme/backend-perhiasan/internal/migrations"
	"github.com/noah-isme/backend-perhiasan/internal/obs"
	"github.com/noah-isme/backend-perhiasan/internal/resilience"
	"github.com/noah-isme/backend-perhiasan/internal/settings"
)

const defaultBackoff = 500 * time.Millisecond

// Dependencies holds the infrastructure shared by the API and the worker.
type Dependencies struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Settings  *settings.Accessor
	GoldPrice *goldprice.Provider
	Refresher goldprice.Refresher
	Logger    zerolog.Logger
}

// Open connects to PostgreSQL and, when configured, Redis, applies pending
// migrations and builds the gold price provider.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	pool, err := OpenDatabase(ctx, cfg.DatabaseURL, cfg.Obs.ServiceName)
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		if v, dirty, err := migrations.Version(cfg.DatabaseURL); err == nil {
			logger.Info().Uint("version", v).Bool("dirty", dirty).Msg("migrations applied")
		}
	}

	rdb, err := OpenRedis(ctx, cfg.RedisURL, cfg.Obs.MetricsEnabled, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	accessor := settings.NewAccessor(settings.NewPostgresStore(pool), logger.With().Str("component", "settings").Logger())
	provider := NewGoldProvider(cfg.GoldPrice, accessor, rdb, logger)

	deps := &Dependencies{
		DB:        pool,
		Redis:     rdb,
		Settings:  accessor,
		GoldPrice: provider,
		Logger:    logger,
		Refresher: goldprice.Refresher{
			Provider: provider,
			Interval: cfg.GoldPrice.RefreshInterval,
			Logger:   logger.With().Str("component", "goldprice-refresh").Logger(),
		},
	}
	if rdb != nil {
		deps.Refresher.Locker = lock.Locker{R: rdb}
	}
	return deps, nil
}

// Close releases the pool and Redis client.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// OpenDatabase builds a traced pgx pool and verifies connectivity.
func OpenDatabase(ctx context.Context, databaseURL, appName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	if appName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = appName
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis returns nil when url is empty. Otherwise the client is instrumented
// and pinged.
func OpenRedis(ctx context.Context, url string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	if strings.TrimSpace(url) == "" {
		logger.Warn().Msg("REDIS_URL not set; using in-process caches and limiter")
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewGoldProvider wires the live feed behind a retrying, circuit-broken HTTP
// client. The cache is shared through Redis when a client is given.
func NewGoldProvider(cfg config.GoldPriceConfig, src goldprice.SettingsSource, rdb *redis.Client, logger zerolog.Logger) *goldprice.Provider {
	var cache goldprice.Cache = goldprice.NewMemoryCache()
	if rdb != nil {
		cache = goldprice.NewLayeredCache(
			goldprice.RedisCache{Client: rdb, TTL: cfg.CacheTTL},
			logger.With().Str("component", "goldprice_cache").Logger(),
		)
	}
	var feed goldprice.Feed
	if cfg.APIKey != "" {
		feed = goldprice.MetalPriceFeed{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			HTTP: resilience.HTTPClient{
				Client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
				Breaker:     resilience.NewBreaker("metalpriceapi", cfg.BreakerFailures, cfg.BreakerCooldown).WithLogger(logger),
				BaseBackoff: defaultBackoff,
				MaxAttempts: cfg.MaxAttempts,
				Jitter:      0.2,
				Timeout:     cfg.Timeout,
			},
		}
	} else {
		logger.Warn().Msg("METALPRICE_API_KEY not set; gold price uses the admin fallback")
	}
	return goldprice.NewProvider(goldprice.Config{
		Settings: src,
		Feed:     feed,
		Cache:    cache,
		TTL:      cfg.CacheTTL,
		Logger:   logger.With().Str("component", "goldprice").Logger(),
	})
}

// TaskRedis converts a Redis URL into asynq connection options.
func TaskRedis(url string) (asynq.RedisConnOpt, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("REDIS_URL is required for background jobs")
	}
	opt, err := asynq.ParseRedisURI(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url for tasks: %w", err)
	}
	return opt, nil
}
