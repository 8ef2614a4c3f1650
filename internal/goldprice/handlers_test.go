package goldprice_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-perhiasan/internal/goldprice"
)

func TestCurrentHandler(t *testing.T) {
	c := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	p, _ := newProvider(liveSettings(), &fakeFeed{price: 6512.4}, c)
	h := goldprice.Handler{Provider: p}

	rr := httptest.NewRecorder()
	h.Current(rr, httptest.NewRequest(http.MethodGet, "/api/v1/gold-price", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		PricePerGram float64 `json:"pricePerGram"`
		Formatted    string  `json:"formatted"`
		Source       string  `json:"source"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 6512.4, body.PricePerGram)
	require.Equal(t, "₹6,512", body.Formatted)
	require.Equal(t, "live", body.Source)
}

func TestQuoteHandlerUsesCurrentPriceAndGST(t *testing.T) {
	c := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	s := liveSettings()
	s.cfg.GSTRate = 0.18
	p, _ := newProvider(s, &fakeFeed{price: 6000}, c)
	h := goldprice.Handler{Provider: p}

	payload := `{
		"basePrice": 1000,
		"goldWeight": 10,
		"goldQuality": "18K",
		"makingChargesPerGram": 500,
		"diamonds": {"quality": "GH/VS-SI", "stones": [{"kind": "simple", "carat": 0.5, "costPerCarat": 40000}]}
	}`
	rr := httptest.NewRecorder()
	h.Quote(rr, httptest.NewRequest(http.MethodPost, "/api/v1/price-quote", strings.NewReader(payload)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	// gold 10*6000*0.78=46800, diamonds 20000, making 5000, base 1000
	require.InDelta(t, 46800, body["goldValue"], 1e-6)
	require.InDelta(t, 72800, body["subtotal"], 1e-6)
	require.InDelta(t, 85904, body["total"], 1e-6)
	require.Equal(t, "₹85,904", body["formattedTotal"])
	require.Equal(t, "0.5ct GH/VS-SI", body["diamondSummary"])
	require.Equal(t, "live", body["goldPriceSource"])
}

func TestQuoteHandlerHonoursOverride(t *testing.T) {
	c := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	feed := &fakeFeed{price: 6000}
	p, _ := newProvider(liveSettings(), feed, c)
	h := goldprice.Handler{Provider: p}

	rr := httptest.NewRecorder()
	h.Quote(rr, httptest.NewRequest(http.MethodPost, "/api/v1/price-quote",
		strings.NewReader(`{"goldWeight": 1, "goldQuality": "24K", "overrideLiveGoldPrice": true}`)))
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.InDelta(t, 6000, body["goldPricePerGram"], 1e-9)
	require.Equal(t, "override", body["goldPriceSource"])
	require.Zero(t, feed.Calls())
}

func TestQuoteHandlerRejectsInvalidInput(t *testing.T) {
	c := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	p, _ := newProvider(liveSettings(), &fakeFeed{price: 6000}, c)
	h := goldprice.Handler{Provider: p}

	for name, payload := range map[string]string{
		"negative weight": `{"goldWeight": -1}`,
		"unknown quality": `{"goldQuality": "9K"}`,
		"negative carat":  `{"diamonds": {"stones": [{"kind": "simple", "carat": -1, "costPerCarat": 1}]}}`,
		"not json":        `{`,
	} {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.Quote(rr, httptest.NewRequest(http.MethodPost, "/api/v1/price-quote", strings.NewReader(payload)))
			require.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestSnapshotAndRefreshHandlers(t *testing.T) {
	c := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	feed := &fakeFeed{price: 6000}
	p, _ := newProvider(liveSettings(), feed, c)
	h := goldprice.Handler{Provider: p}

	rr := httptest.NewRecorder()
	h.Snapshot(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/gold-price", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.Refresh(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/gold-price/refresh", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, feed.Calls())

	rr = httptest.NewRecorder()
	h.Snapshot(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/gold-price", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"source":"live"`)
}

func TestQuoteFromQueryCoercesFormInput(t *testing.T) {
	c := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	s := liveSettings()
	s.cfg.GSTRate = 0.18
	p, _ := newProvider(s, &fakeFeed{price: 6000}, c)
	h := goldprice.Handler{Provider: p}

	rr := httptest.NewRecorder()
	target := "/api/v1/price-quote?goldWeight=10&goldQuality=18k&makingChargesPerGram=500&basePrice=abc"
	h.QuoteFromQuery(rr, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	// base price "abc" coerces to 0: gold 46800 + making 5000, GST 18%
	require.InDelta(t, 0, body["basePrice"], 1e-9)
	require.InDelta(t, 51800, body["subtotal"], 1e-6)
	require.InDelta(t, 61124, body["total"], 1e-6)
	require.Equal(t, "No diamonds", body["diamondSummary"])

	rr = httptest.NewRecorder()
	h.QuoteFromQuery(rr, httptest.NewRequest(http.MethodGet, "/api/v1/price-quote?goldWeight=-3&goldQuality=9K", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
