package pricing

import (
	"strconv"
	"strings"
)

// GoldQuality is the karat grade of the gold alloy.
type GoldQuality string

const (
	Gold14K GoldQuality = "14K"
	Gold18K GoldQuality = "18K"
	Gold22K GoldQuality = "22K"
	Gold24K GoldQuality = "24K"
)

// DefaultPurity applies to 22K and to any grade missing from the purity table.
const DefaultPurity = 0.583

// DefaultGSTRate is used when no rate is supplied.
const DefaultGSTRate = 0.18

var purityTable = map[GoldQuality]float64{
	Gold14K: 0.600,
	Gold18K: 0.780,
	Gold24K: 1.000,
}

// Purity returns the purity multiplier for the grade.
func Purity(q GoldQuality) float64 {
	if p, ok := purityTable[q]; ok {
		return p
	}
	return DefaultPurity
}

// Input groups everything needed to price a finished piece.
type Input struct {
	BasePrice            float64
	GoldWeight           float64
	GoldQuality          GoldQuality
	Diamonds             DiamondSet
	MakingChargesPerGram float64
	GoldPricePerGram     float64
	// GSTRate falls back to DefaultGSTRate when nil.
	GSTRate *float64
}

// Rate is a small helper for populating Input.GSTRate.
func Rate(r float64) *float64 { return &r }

func (in Input) gstRate() float64 {
	if in.GSTRate == nil {
		return DefaultGSTRate
	}
	return *in.GSTRate
}

// PriceBreakdown is the itemised result of a price calculation. Values keep
// full precision; rounding belongs to display formatting.
type PriceBreakdown struct {
	GoldValue     float64 `json:"goldValue"`
	DiamondCost   float64 `json:"diamondCost"`
	MakingCharges float64 `json:"makingCharges"`
	BasePrice     float64 `json:"basePrice"`
	Subtotal      float64 `json:"subtotal"`
	GST           float64 `json:"gst"`
	GSTRate       float64 `json:"gstRate"`
	Total         float64 `json:"total"`
}

// GetPriceBreakdown computes every component of the final price. GST is
// applied once to the full subtotal.
func GetPriceBreakdown(in Input) PriceBreakdown {
	purity := Purity(in.GoldQuality)
	goldValue := in.GoldWeight * in.GoldPricePerGram * purity
	diamondCost := in.Diamonds.Cost()
	makingCharges := in.GoldWeight * in.MakingChargesPerGram
	subtotal := goldValue + diamondCost + makingCharges + in.BasePrice
	rate := in.gstRate()
	gst := subtotal * rate
	total := subtotal + gst

	return PriceBreakdown{
		GoldValue:     goldValue,
		DiamondCost:   diamondCost,
		MakingCharges: makingCharges,
		BasePrice:     in.BasePrice,
		Subtotal:      subtotal,
		GST:           gst,
		GSTRate:       rate,
		Total:         total,
	}
}

// CalculatePrice returns only the final, tax-inclusive price.
func CalculatePrice(in Input) float64 {
	return GetPriceBreakdown(in).Total
}

// SanitizeAmount parses a user-entered number, coercing anything invalid,
// negative or non-finite to zero.
func SanitizeAmount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v != v || v < 0 || v > maxAmount {
		return 0
	}
	return v
}

const maxAmount = 1e15
