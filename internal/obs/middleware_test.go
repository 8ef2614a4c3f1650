package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-perhiasan/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("perhiasan", []float64{1, 10}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gold-price", nil)
	req = req.WithContext(obs.WithRoute(req.Context(), "/api/v1/gold-price"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues("storefront", http.MethodGet, "/api/v1/gold-price", "204")))
	require.NotZero(t, testutil.CollectAndCount(metrics.ReqDur))
	require.Zero(t, testutil.ToFloat64(metrics.InFlight))
}

func TestParseBucketsCSV(t *testing.T) {
	require.Equal(t, []float64{5, 20.5}, obs.ParseBucketsCSV("5, x, -1, 20.5,"))
	require.Equal(t, []float64{10, 50}, obs.ParseBucketsCSV("50,10,50"))
	require.Nil(t, obs.ParseBucketsCSV("  "))
}

func TestDomainMetricsRegisterOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("perhiasan", registry)
	obs.MustRegisterDomainMetrics("perhiasan", registry)

	obs.IncCounter(obs.GoldPriceResolutions, "live")
	require.Equal(t, float64(1), testutil.ToFloat64(obs.GoldPriceResolutions.WithLabelValues("live")))

	obs.IncCounter(nil, "ignored")
}

func TestHTTPMetricsRouteFromChi(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("perhiasan", nil, registry)
	r := chi.NewRouter()
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Route("/api/v1/admin", func(admin chi.Router) {
		admin.Delete("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/v1/admin/items/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues("admin", http.MethodDelete, "/api/v1/admin/items/{id}", "204")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues("other", http.MethodGet, "unmatched", "404")))
}

func TestSurface(t *testing.T) {
	require.Equal(t, "admin", obs.Surface("/api/v1/admin/settings"))
	require.Equal(t, "storefront", obs.Surface("/api/v1/items"))
	require.Equal(t, "ops", obs.Surface("/health/ready"))
	require.Equal(t, "ops", obs.Surface("/metrics"))
	require.Equal(t, "other", obs.Surface("unmatched"))
}
