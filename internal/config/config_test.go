package config_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-perhiasan/internal/config"
)

var secret = strings.Repeat("s", 32)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL":         "postgres://localhost/perhiasan",
		"SESSION_SECRET":       secret,
		"GOLD_PRICE_TIMEOUT":   "",
		"GOLD_PRICE_CACHE_TTL": "",
		"DRIVE_ROOT_FOLDER":    "",
		"COOKIE_SAMESITE":      "",
		"PORT":                 "",
		"DB_MIGRATE_ON_START":  "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 10*time.Second, cfg.GoldPrice.Timeout)
	require.Equal(t, 24*time.Hour, cfg.GoldPrice.CacheTTL)
	require.Equal(t, "WebCatalog(DO NOT EDIT)", cfg.Drive.RootFolder)
	require.Equal(t, http.SameSiteLaxMode, cfg.CookieSameSite)
	require.False(t, cfg.Drive.Enabled())
	require.True(t, cfg.MigrateOnStart)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL":          "postgres://localhost/perhiasan",
		"SESSION_SECRET":        secret,
		"ADMIN_EMAIL":           " Owner@Example.com ",
		"GOLD_PRICE_TIMEOUT":    "3s",
		"GOLD_REFRESH_INTERVAL": "bogus",
		"UPLOAD_MAX_BYTES":      "2048",
		"CORS_ALLOWED_ORIGINS":  "https://shop.example.com, ,https://admin.example.com",
		"DRIVE_CLIENT_ID":       "id",
		"DRIVE_CLIENT_SECRET":   "secret",
		"DRIVE_REFRESH_TOKEN":   "token",
		"PORT":                  ":9000",
	})
	require.NoError(t, err)
	require.Equal(t, "owner@example.com", cfg.AdminEmail)
	require.Equal(t, 3*time.Second, cfg.GoldPrice.Timeout)
	require.Equal(t, 24*time.Hour, cfg.GoldPrice.RefreshInterval)
	require.Equal(t, int64(2048), cfg.UploadMaxBytes)
	require.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
	require.True(t, cfg.Drive.Enabled())
	require.Equal(t, ":9000", cfg.HTTPAddr())
}

func TestLoadRequiresSecrets(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{"DATABASE_URL": "", "SESSION_SECRET": secret})
	require.ErrorContains(t, err, "DATABASE_URL")

	_, err = config.LoadForTests(map[string]string{"DATABASE_URL": "postgres://x", "SESSION_SECRET": "short"})
	require.ErrorContains(t, err, "SESSION_SECRET")
}
