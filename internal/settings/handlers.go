package settings

import (
	"encoding/json"
	"net/http"

	"github.com/noah-isme/backend-perhiasan/internal/common"
)

// Handler exposes the admin settings endpoints.
type Handler struct {
	Accessor *Accessor
}

type updatePayload struct {
	FallbackGoldPrice     *float64 `json:"fallbackGoldPrice"`
	GSTRate               *float64 `json:"gstRate"`
	OverrideLiveGoldPrice *bool    `json:"overrideLiveGoldPrice"`
}

// Get handles GET /api/v1/admin/settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Accessor == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settings not configured", nil)
		return
	}
	current, err := h.Accessor.Load(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, "SETTINGS_UNAVAILABLE", "failed to load settings", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": current})
}

// Update handles PUT /api/v1/admin/settings. The fallback price and GST rate
// must be supplied together; the override flag is independent.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Accessor == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settings not configured", nil)
		return
	}
	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if (payload.FallbackGoldPrice == nil) != (payload.GSTRate == nil) {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "fallbackGoldPrice and gstRate must be provided together", nil)
		return
	}
	if payload.FallbackGoldPrice == nil && payload.OverrideLiveGoldPrice == nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "nothing to update", nil)
		return
	}

	var failed []string
	if payload.FallbackGoldPrice != nil {
		if *payload.FallbackGoldPrice <= 0 {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "fallbackGoldPrice must be positive", map[string]any{"field": "fallbackGoldPrice"})
			return
		}
		if *payload.GSTRate < 0 || *payload.GSTRate > 1 {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "gstRate must be between 0 and 1", map[string]any{"field": "gstRate"})
			return
		}
		failed = append(failed, h.Accessor.UpdatePricing(r.Context(), *payload.FallbackGoldPrice, *payload.GSTRate)...)
	}
	if payload.OverrideLiveGoldPrice != nil {
		if !h.Accessor.SetOverride(r.Context(), *payload.OverrideLiveGoldPrice) {
			failed = append(failed, KeyOverrideLiveGoldPrice)
		}
	}
	if len(failed) > 0 {
		common.JSONError(w, http.StatusBadGateway, "SETTINGS_UPDATE_FAILED", "some settings were not saved", map[string]any{"failed": failed})
		return
	}

	current, err := h.Accessor.Load(r.Context())
	if err != nil {
		common.JSON(w, http.StatusOK, map[string]any{"data": nil})
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": current})
}
