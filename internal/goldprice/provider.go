package goldprice

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/backend-perhiasan/internal/obs"
	"github.com/noah-isme/backend-perhiasan/internal/settings"
)

// DefaultCacheTTL is how long a resolved price is served without a live fetch.
const DefaultCacheTTL = 24 * time.Hour

// SettingsSource loads the admin pricing settings.
type SettingsSource interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// Config wires a Provider.
type Config struct {
	Settings SettingsSource
	Feed     Feed
	Cache    Cache
	TTL      time.Duration
	Now      func() time.Time
	Logger   zerolog.Logger
}

// Provider resolves the INR price of one gram of fine gold. It never fails:
// every error path degrades to the admin fallback price.
type Provider struct {
	settings SettingsSource
	feed     Feed
	cache    Cache
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
	flight   singleflight.Group
}

// Quote is a resolved price together with the settings it was resolved under.
type Quote struct {
	PricePerGram float64           `json:"pricePerGram"`
	Source       Source            `json:"source"`
	FetchedAt    time.Time         `json:"fetchedAt"`
	Settings     settings.Settings `json:"-"`
}

// NewProvider constructs a Provider. A nil cache defaults to an in-memory one.
func NewProvider(cfg Config) *Provider {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	cache := cfg.Cache
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Provider{
		settings: cfg.Settings,
		feed:     cfg.Feed,
		cache:    cache,
		ttl:      ttl,
		now:      now,
		logger:   cfg.Logger,
	}
}

// CurrentPrice returns the price per gram. A non-nil override takes precedence
// over the persisted override flag.
func (p *Provider) CurrentPrice(ctx context.Context, override *bool) float64 {
	return p.Resolve(ctx, override).PricePerGram
}

// Resolve runs price resolution and reports which branch answered.
func (p *Provider) Resolve(ctx context.Context, override *bool) Quote {
	cfg := p.loadSettings(ctx)

	useOverride := cfg.OverrideLiveGoldPrice
	if override != nil {
		useOverride = *override
	}
	now := p.now()

	if useOverride {
		return p.store(ctx, cfg, Entry{Price: cfg.FallbackGoldPrice, Timestamp: now, Source: SourceOverride}, "override")
	}

	if q, ok := p.cached(ctx, cfg, now); ok {
		return q
	}

	// Concurrent misses share one live fetch. The shared call outlives a
	// cancelled caller so the others still get its result.
	v, _, _ := p.flight.Do("live", func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		if q, ok := p.cached(fctx, cfg, now); ok {
			return q, nil
		}
		price, err := p.fetch(fctx)
		if err != nil {
			p.logger.Warn().Err(err).Float64("fallback", cfg.FallbackGoldPrice).Msg("live gold price unavailable, using fallback")
			return p.store(fctx, cfg, Entry{Price: cfg.FallbackGoldPrice, Timestamp: now, Source: SourceFallback}, "fallback"), nil
		}
		return p.store(fctx, cfg, Entry{Price: price, Timestamp: now, Source: SourceLive}, "live"), nil
	})
	q := v.(Quote)
	q.Settings = cfg
	return q
}

func (p *Provider) cached(ctx context.Context, cfg settings.Settings, now time.Time) (Quote, bool) {
	e, ok := p.cache.Get(ctx)
	if !ok || now.Sub(e.Timestamp) >= p.ttl {
		return Quote{}, false
	}
	p.observe("cache", e.Price)
	return Quote{PricePerGram: e.Price, Source: e.Source, FetchedAt: e.Timestamp, Settings: cfg}, true
}

// Refresh re-runs resolution under the persisted settings.
func (p *Provider) Refresh(ctx context.Context) Quote {
	return p.Resolve(ctx, nil)
}

// ForceRefresh drops the cached entry before resolving so a live fetch is
// attempted unless the override is on.
func (p *Provider) ForceRefresh(ctx context.Context) Quote {
	if err := p.cache.Clear(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("gold price cache clear failed")
	}
	return p.Resolve(ctx, nil)
}

// Snapshot returns the cached entry without triggering resolution.
func (p *Provider) Snapshot(ctx context.Context) (Entry, bool) {
	return p.cache.Get(ctx)
}

func (p *Provider) loadSettings(ctx context.Context) settings.Settings {
	if p.settings == nil {
		return settings.Defaults()
	}
	cfg, err := p.settings.Load(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("admin settings unavailable, using defaults")
		return settings.Defaults()
	}
	return cfg
}

func (p *Provider) fetch(ctx context.Context) (float64, error) {
	if p.feed == nil {
		return 0, ErrMissingRate
	}
	start := time.Now()
	price, err := p.feed.PricePerGram(ctx)
	if obs.GoldFeedLatency != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		obs.GoldFeedLatency.WithLabelValues(result).Observe(obs.DurationMillis(time.Since(start)))
	}
	return price, err
}

func (p *Provider) store(ctx context.Context, cfg settings.Settings, e Entry, branch string) Quote {
	if err := p.cache.Set(ctx, e); err != nil {
		p.logger.Warn().Err(err).Str("source", string(e.Source)).Msg("gold price cache write failed")
	}
	p.observe(branch, e.Price)
	return Quote{PricePerGram: e.Price, Source: e.Source, FetchedAt: e.Timestamp, Settings: cfg}
}

func (p *Provider) observe(branch string, price float64) {
	obs.IncCounter(obs.GoldPriceResolutions, branch)
	if obs.GoldPricePerGram != nil {
		obs.GoldPricePerGram.Set(price)
	}
}
