package settings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Setting keys persisted in the admin_settings table.
const (
	KeyFallbackGoldPrice     = "fallback_gold_price"
	KeyGSTRate               = "gst_rate"
	KeyOverrideLiveGoldPrice = "override_live_gold_price"
)

// Defaults used when a key is missing, unparsable or the store is unreachable.
const (
	DefaultFallbackGoldPrice = 5450.0
	DefaultGSTRate           = 0.18
	DefaultOverride          = false
)

// Keys lists every managed setting.
var Keys = []string{KeyFallbackGoldPrice, KeyGSTRate, KeyOverrideLiveGoldPrice}

// Settings holds the parameters governing gold price resolution and tax.
type Settings struct {
	FallbackGoldPrice     float64 `json:"fallbackGoldPrice"`
	GSTRate               float64 `json:"gstRate"`
	OverrideLiveGoldPrice bool    `json:"overrideLiveGoldPrice"`
}

// Defaults returns the hardcoded settings.
func Defaults() Settings {
	return Settings{
		FallbackGoldPrice:     DefaultFallbackGoldPrice,
		GSTRate:               DefaultGSTRate,
		OverrideLiveGoldPrice: DefaultOverride,
	}
}

// Store persists raw key/value rows.
type Store interface {
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	Upsert(ctx context.Context, key, value string) error
}

// Accessor reads and writes typed settings over a Store.
type Accessor struct {
	Store  Store
	Logger zerolog.Logger
}

// NewAccessor constructs an Accessor.
func NewAccessor(store Store, logger zerolog.Logger) *Accessor {
	return &Accessor{Store: store, Logger: logger}
}

// Load reads all settings. Missing or malformed values fall back per key.
// When the store fails the defaults are returned together with the error.
func (a *Accessor) Load(ctx context.Context) (Settings, error) {
	if a == nil || a.Store == nil {
		return Defaults(), errors.New("settings: store not configured")
	}
	rows, err := a.Store.GetMany(ctx, Keys)
	if err != nil {
		return Defaults(), fmt.Errorf("load settings: %w", err)
	}
	return Settings{
		FallbackGoldPrice:     floatOrDefault(rows[KeyFallbackGoldPrice], DefaultFallbackGoldPrice),
		GSTRate:               floatOrDefault(rows[KeyGSTRate], DefaultGSTRate),
		OverrideLiveGoldPrice: rows[KeyOverrideLiveGoldPrice] == "true",
	}, nil
}

// Update upserts a single setting. Failures are logged and reported as false.
func (a *Accessor) Update(ctx context.Context, key, value string) bool {
	if a == nil || a.Store == nil {
		return false
	}
	if err := a.Store.Upsert(ctx, key, value); err != nil {
		a.Logger.Error().Err(err).Str("setting_key", key).Msg("update setting")
		return false
	}
	return true
}

// UpdatePricing writes the fallback gold price and GST rate as two
// independent upserts and returns the keys that failed. A partial failure
// leaves the successful key written; callers retry both.
func (a *Accessor) UpdatePricing(ctx context.Context, fallbackGoldPrice, gstRate float64) []string {
	var failed []string
	if !a.Update(ctx, KeyFallbackGoldPrice, FormatFloat(fallbackGoldPrice)) {
		failed = append(failed, KeyFallbackGoldPrice)
	}
	if !a.Update(ctx, KeyGSTRate, FormatFloat(gstRate)) {
		failed = append(failed, KeyGSTRate)
	}
	return failed
}

// SetOverride persists the live price override flag.
func (a *Accessor) SetOverride(ctx context.Context, override bool) bool {
	return a.Update(ctx, KeyOverrideLiveGoldPrice, strconv.FormatBool(override))
}

// FormatFloat renders a setting value without trailing zeros.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// numericPrefix matches the leading decimal number of a stored value, so rows
// edited by hand such as "5500 INR" still read as 5500.
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

func floatOrDefault(raw string, fallback float64) float64 {
	m := numericPrefix.FindString(strings.TrimSpace(raw))
	if m == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || v == 0 || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
