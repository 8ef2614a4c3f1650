package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// GoldPriceResolutions counts gold price resolutions by the branch that answered.
	GoldPriceResolutions *prometheus.CounterVec
	// GoldPricePerGram exposes the most recently resolved INR price per gram.
	GoldPricePerGram prometheus.Gauge
	// GoldFeedLatency records live feed call latency in milliseconds.
	GoldFeedLatency *prometheus.HistogramVec
	// CatalogCacheTotal counts catalog cache lookups.
	CatalogCacheTotal *prometheus.CounterVec
	// AssetOperationsTotal counts asset store uploads and deletions per file.
	AssetOperationsTotal *prometheus.CounterVec
	// AdminLoginTotal counts admin login attempts.
	AdminLoginTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		GoldPriceResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gold_price_resolutions_total",
			Help:      "Count of gold price resolutions by source.",
		}, []string{"source"})
		GoldPricePerGram = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gold_price_inr_per_gram",
			Help:      "Most recently resolved gold price in INR per gram.",
		})
		GoldFeedLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gold_feed_duration_ms",
			Help:      "Latency of live gold price feed calls in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"result"})
		CatalogCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Count of catalog cache lookups by result.",
		}, []string{"result"})
		AssetOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_operations_total",
			Help:      "Count of asset store file operations by outcome.",
		}, []string{"operation", "result"})
		AdminLoginTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_login_total",
			Help:      "Count of admin login attempts by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, GoldPriceResolutions, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				GoldPriceResolutions = v
			}
		})
		mustRegisterCollector(reg, GoldPricePerGram, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				GoldPricePerGram = v
			}
		})
		mustRegisterCollector(reg, GoldFeedLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				GoldFeedLatency = v
			}
		})
		mustRegisterCollector(reg, CatalogCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogCacheTotal = v
			}
		})
		mustRegisterCollector(reg, AssetOperationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				AssetOperationsTotal = v
			}
		})
		mustRegisterCollector(reg, AdminLoginTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				AdminLoginTotal = v
			}
		})
	})
}

// IncCounter increments a labelled counter when domain metrics are registered.
func IncCounter(c *prometheus.CounterVec, labels ...string) {
	if c == nil {
		return
	}
	c.WithLabelValues(labels...).Inc()
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
