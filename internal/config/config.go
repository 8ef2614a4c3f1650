package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	MigrateOnStart     bool
	RedisURL           string
	CORSAllowedOrigins []string

	AdminEmail        string
	AdminPasswordHash string
	SessionSecret     string
	SessionTTL        time.Duration
	CookieDomain      string
	CookieSecure      bool
	CookieSameSite    http.SameSite
	LoginRateLimit    string

	GoldPrice GoldPriceConfig
	Drive     DriveConfig
	Obs       ObsConfig

	CatalogCacheTTL time.Duration
	UploadMaxBytes  int64
}

// GoldPriceConfig configures the live gold price feed.
type GoldPriceConfig struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	CacheTTL        time.Duration
	RefreshInterval time.Duration
	MaxAttempts     int
	BreakerFailures int
	BreakerCooldown time.Duration
}

// DriveConfig carries the OAuth client used by the Google Drive asset store.
type DriveConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	RootFolder   string
}

// Enabled reports whether Drive credentials are present.
func (d DriveConfig) Enabled() bool {
	return d.ClientID != "" && d.ClientSecret != "" && d.RefreshToken != ""
}

// ObsConfig toggles logging, metrics and tracing.
type ObsConfig struct {
	ServiceName     string
	LogFormat       string
	LogLevel        string
	MetricsEnabled  bool
	MetricsBuckets  string
	TracingEnabled  bool
	TracingEndpoint string
	TracingSampling float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		MigrateOnStart:     parseBoolDefault(k.String("DB_MIGRATE_ON_START"), true),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		AdminEmail:         strings.ToLower(strings.TrimSpace(k.String("ADMIN_EMAIL"))),
		AdminPasswordHash:  strings.TrimSpace(k.String("ADMIN_PASSWORD_HASH")),
		SessionSecret:      k.String("SESSION_SECRET"),
		SessionTTL:         parseDuration(k.String("SESSION_TTL"), "12h"),
		CookieDomain:       strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:       parseBool(k.String("COOKIE_SECURE")),
		CookieSameSite:     parseSameSite(k.String("COOKIE_SAMESITE")),
		LoginRateLimit:     valueOrDefault(k.String("LOGIN_RATE_LIMIT"), "5-M"),
		GoldPrice: GoldPriceConfig{
			APIKey:          strings.TrimSpace(k.String("METALPRICE_API_KEY")),
			BaseURL:         valueOrDefault(k.String("METALPRICE_BASE_URL"), "https://api.metalpriceapi.com"),
			Timeout:         parseDuration(k.String("GOLD_PRICE_TIMEOUT"), "10s"),
			CacheTTL:        parseDuration(k.String("GOLD_PRICE_CACHE_TTL"), "24h"),
			RefreshInterval: parseDuration(k.String("GOLD_REFRESH_INTERVAL"), "24h"),
			MaxAttempts:     parseInt(k.String("GOLD_PRICE_MAX_ATTEMPTS"), 2),
			BreakerFailures: parseInt(k.String("GOLD_PRICE_BREAKER_FAILURES"), 3),
			BreakerCooldown: parseDuration(k.String("GOLD_PRICE_BREAKER_COOLDOWN"), "5m"),
		},
		Drive: DriveConfig{
			ClientID:     strings.TrimSpace(k.String("DRIVE_CLIENT_ID")),
			ClientSecret: strings.TrimSpace(k.String("DRIVE_CLIENT_SECRET")),
			RefreshToken: strings.TrimSpace(k.String("DRIVE_REFRESH_TOKEN")),
			RootFolder:   valueOrDefault(k.String("DRIVE_ROOT_FOLDER"), "WebCatalog(DO NOT EDIT)"),
		},
		Obs: ObsConfig{
			ServiceName:     valueOrDefault(k.String("OBS_SERVICE_NAME"), "backend-perhiasan"),
			LogFormat:       valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:        valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsEnabled:  parseBoolDefault(k.String("OBS_METRICS_ENABLED"), true),
			MetricsBuckets:  k.String("OBS_METRICS_BUCKETS_MS"),
			TracingEnabled:  parseBool(k.String("OBS_TRACING_ENABLED")),
			TracingEndpoint: strings.TrimSpace(k.String("OBS_TRACING_ENDPOINT")),
			TracingSampling: parseFloat(k.String("OBS_TRACING_SAMPLING"), 1),
		},
		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		UploadMaxBytes:  int64(parseInt(k.String("UPLOAD_MAX_BYTES"), 10<<20)),
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}
	if len(cfg.SessionSecret) < 32 {
		return nil, errors.New("SESSION_SECRET must be at least 32 bytes")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseBoolDefault(value string, fallback bool) bool {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return parseBool(value)
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
