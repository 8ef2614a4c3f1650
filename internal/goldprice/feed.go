package goldprice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/noah-isme/backend-perhiasan/internal/resilience"
)

// TroyOunceGrams converts troy ounces to grams.
const TroyOunceGrams = 31.1035

// DefaultMetalPriceBaseURL is the public metals-price API endpoint.
const DefaultMetalPriceBaseURL = "https://api.metalpriceapi.com"

// ErrMissingRate reports a feed response without a usable XAU rate.
var ErrMissingRate = errors.New("goldprice: response has no XAU rate")

// Feed fetches the live INR price of one gram of fine gold.
type Feed interface {
	PricePerGram(ctx context.Context) (float64, error)
}

// MetalPriceFeed queries the metalpriceapi.com latest-rates endpoint with an
// INR base. The XAU rate is ounces of gold per rupee.
type MetalPriceFeed struct {
	BaseURL string
	APIKey  string
	HTTP    resilience.HTTPClient
}

type latestResponse struct {
	Success *bool              `json:"success"`
	Rates   map[string]float64 `json:"rates"`
}

// PricePerGram returns (1 / XAU) / 31.1035.
func (f MetalPriceFeed) PricePerGram(ctx context.Context) (float64, error) {
	base := strings.TrimRight(strings.TrimSpace(f.BaseURL), "/")
	if base == "" {
		base = DefaultMetalPriceBaseURL
	}
	q := url.Values{}
	q.Set("api_key", f.APIKey)
	q.Set("base", "INR")
	q.Set("currencies", "XAU")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/v1/latest?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build gold price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.HTTP.Do(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("fetch gold price: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("fetch gold price: upstream status %d", resp.StatusCode)
	}
	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode gold price: %w", err)
	}
	xau, ok := body.Rates["XAU"]
	if !ok || xau <= 0 {
		return 0, ErrMissingRate
	}
	return (1 / xau) / TroyOunceGrams, nil
}
