package catalog

import (
	"time"

	"github.com/noah-isme/backend-perhiasan/internal/pricing"
)

// Category groups jewelry items. Top-level categories have no parent.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	ParentID    *string   `json:"parentId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Item is a jewelry piece as persisted. Its price is never stored.
type Item struct {
	ID                   string              `json:"id"`
	Name                 string              `json:"name"`
	Description          string              `json:"description"`
	CategoryID           string              `json:"categoryId"`
	Images               []string            `json:"images"`
	GoldWeight           float64             `json:"goldWeight"`
	GoldQuality          pricing.GoldQuality `json:"goldQuality"`
	Diamonds             pricing.DiamondSet  `json:"diamonds"`
	MakingChargesPerGram float64             `json:"makingChargesPerGram"`
	BasePrice            float64             `json:"basePrice"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
}

// PricingInput maps the item onto the pricing engine at the given rates.
func (it Item) PricingInput(goldPricePerGram, gstRate float64) pricing.Input {
	return pricing.Input{
		BasePrice:            it.BasePrice,
		GoldWeight:           it.GoldWeight,
		GoldQuality:          it.GoldQuality,
		Diamonds:             it.Diamonds,
		MakingChargesPerGram: it.MakingChargesPerGram,
		GoldPricePerGram:     goldPricePerGram,
		GSTRate:              pricing.Rate(gstRate),
	}
}

// PricedItem is an item with its live price attached.
type PricedItem struct {
	Item
	Price          float64                `json:"price"`
	FormattedPrice string                 `json:"formattedPrice"`
	Breakdown      pricing.PriceBreakdown `json:"breakdown"`
	DiamondSummary string                 `json:"diamondSummary"`
	GoldWeightText string                 `json:"goldWeightText"`
	// DiamondCarat is the total diamond weight, empty for plain gold pieces.
	DiamondCarat string `json:"diamondCarat,omitempty"`
}

// CategoryInput is the admin payload for creating or updating a category.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description string  `json:"description" validate:"max=2000"`
	ImageURL    string  `json:"imageUrl" validate:"omitempty,url"`
	ParentID    *string `json:"parentId" validate:"omitempty,uuid"`
}

// ItemInput is the admin payload for creating or updating an item.
type ItemInput struct {
	Name                 string              `json:"name" validate:"required,max=160"`
	Description          string              `json:"description" validate:"max=4000"`
	CategoryID           string              `json:"categoryId" validate:"required,uuid"`
	Images               []string            `json:"images" validate:"max=20,dive,url"`
	GoldWeight           float64             `json:"goldWeight" validate:"gte=0"`
	GoldQuality          pricing.GoldQuality `json:"goldQuality" validate:"omitempty,oneof=14K 18K 22K 24K"`
	Diamonds             pricing.DiamondSet  `json:"diamonds"`
	MakingChargesPerGram float64             `json:"makingChargesPerGram" validate:"gte=0"`
	BasePrice            float64             `json:"basePrice" validate:"gte=0"`
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	CategoryIDs []string
	Query       string
	Offset      int
	Limit       int
}
