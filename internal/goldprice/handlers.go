package goldprice

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/backend-perhiasan/internal/common"
	"github.com/noah-isme/backend-perhiasan/internal/pricing"
)

// Handler exposes gold price and quote endpoints.
type Handler struct {
	Provider *Provider
}

type priceResponse struct {
	PricePerGram float64   `json:"pricePerGram"`
	Formatted    string    `json:"formatted"`
	Source       Source    `json:"source"`
	FetchedAt    time.Time `json:"fetchedAt"`
}

func newPriceResponse(q Quote) priceResponse {
	return priceResponse{
		PricePerGram: q.PricePerGram,
		Formatted:    pricing.FormatINR(q.PricePerGram),
		Source:       q.Source,
		FetchedAt:    q.FetchedAt,
	}
}

// Current handles GET /gold-price.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, newPriceResponse(h.Provider.Resolve(r.Context(), nil)))
}

type quoteRequest struct {
	BasePrice            float64             `json:"basePrice" validate:"gte=0"`
	GoldWeight           float64             `json:"goldWeight" validate:"gte=0"`
	GoldQuality          pricing.GoldQuality `json:"goldQuality" validate:"omitempty,oneof=14K 18K 22K 24K"`
	Diamonds             pricing.DiamondSet  `json:"diamonds"`
	MakingChargesPerGram float64             `json:"makingChargesPerGram" validate:"gte=0"`
	OverrideLiveGold     *bool               `json:"overrideLiveGoldPrice"`
}

type quoteResponse struct {
	pricing.PriceBreakdown
	GoldPricePerGram float64 `json:"goldPricePerGram"`
	GoldPriceSource  Source  `json:"goldPriceSource"`
	FormattedTotal   string  `json:"formattedTotal"`
	DiamondSummary   string  `json:"diamondSummary"`
}

// Quote handles POST /price-quote, pricing arbitrary inputs at the current
// gold price and GST rate.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := common.DecodeJSON(r, &req, 0); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := req.Diamonds.Validate(); err != nil {
		common.WriteError(w, common.Validation("invalid payload", map[string]string{"diamonds": err.Error()}))
		return
	}
	h.writeQuote(w, r, req)
}

// QuoteFromQuery handles GET /price-quote for the storefront calculator form.
// Numeric fields are coerced like form input: anything unparsable or
// negative counts as zero. Diamonds are not accepted here.
func (h *Handler) QuoteFromQuery(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	req := quoteRequest{
		BasePrice:            pricing.SanitizeAmount(v.Get("basePrice")),
		GoldWeight:           pricing.SanitizeAmount(v.Get("goldWeight")),
		GoldQuality:          pricing.GoldQuality(strings.ToUpper(strings.TrimSpace(v.Get("goldQuality")))),
		MakingChargesPerGram: pricing.SanitizeAmount(v.Get("makingChargesPerGram")),
	}
	if err := common.ValidateStruct(&req); err != nil {
		common.WriteError(w, err)
		return
	}
	if raw := v.Get("overrideLiveGoldPrice"); raw != "" {
		override := raw == "true"
		req.OverrideLiveGold = &override
	}
	h.writeQuote(w, r, req)
}

func (h *Handler) writeQuote(w http.ResponseWriter, r *http.Request, req quoteRequest) {
	q := h.Provider.Resolve(r.Context(), req.OverrideLiveGold)
	in := pricing.Input{
		BasePrice:            req.BasePrice,
		GoldWeight:           req.GoldWeight,
		GoldQuality:          req.GoldQuality,
		Diamonds:             req.Diamonds,
		MakingChargesPerGram: req.MakingChargesPerGram,
		GoldPricePerGram:     q.PricePerGram,
		GSTRate:              pricing.Rate(q.Settings.GSTRate),
	}
	breakdown := pricing.GetPriceBreakdown(in)
	common.JSON(w, http.StatusOK, quoteResponse{
		PriceBreakdown:   breakdown,
		GoldPricePerGram: q.PricePerGram,
		GoldPriceSource:  q.Source,
		FormattedTotal:   pricing.FormatINR(breakdown.Total),
		DiamondSummary:   req.Diamonds.Summary(),
	})
}

// Snapshot handles GET /admin/gold-price, reporting the cache without resolving.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.Provider.Snapshot(r.Context())
	if !ok {
		common.WriteError(w, common.NotFound("no gold price cached yet", errors.New("cache empty")))
		return
	}
	common.JSON(w, http.StatusOK, newPriceResponse(Quote{PricePerGram: entry.Price, Source: entry.Source, FetchedAt: entry.Timestamp}))
}

// Refresh handles POST /admin/gold-price/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, newPriceResponse(h.Provider.ForceRefresh(r.Context())))
}
