package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-perhiasan/internal/app"
	"github.com/noah-isme/backend-perhiasan/internal/catalog"
	"github.com/noah-isme/backend-perhiasan/internal/config"
	"github.com/noah-isme/backend-perhiasan/internal/migrations"
	"github.com/noah-isme/backend-perhiasan/internal/obs"
	"github.com/noah-isme/backend-perhiasan/internal/pricing"
)

type seedItem struct {
	name     string
	category string
	weight   float64
	quality  pricing.GoldQuality
	making   float64
	base     float64
	diamonds pricing.DiamondSet
}

var seedCategories = []struct {
	name   string
	parent string
	desc   string
}{
	{name: "Rings", desc: "Engagement, wedding and everyday rings"},
	{name: "Solitaires", parent: "Rings", desc: "Single-stone rings"},
	{name: "Bands", parent: "Rings", desc: "Plain and studded bands"},
	{name: "Necklaces", desc: "Chains, pendants and chokers"},
	{name: "Earrings", desc: "Studs, hoops and drops"},
	{name: "Bangles", desc: "Traditional and contemporary bangles"},
}

var seedItems = []seedItem{
	{name: "Aria Solitaire", category: "Solitaires", weight: 3.2, quality: pricing.Gold18K, making: 850, base: 1500,
		diamonds: pricing.DiamondSet{Quality: pricing.QualityFGVVSSI, Stones: []pricing.Diamond{
			pricing.TieredDiamond{Carat: 0.5, Costs: map[pricing.DiamondQuality]float64{
				pricing.QualityLabGrown: 25000,
				pricing.QualityGHVSSI:   62000,
				pricing.QualityFGVVSSI:  78000,
				pricing.QualityEFVVS:    95000,
			}},
		}}},
	{name: "Classic Band", category: "Bands", weight: 4.5, quality: pricing.Gold22K, making: 450},
	{name: "Eternity Band", category: "Bands", weight: 3.8, quality: pricing.Gold18K, making: 900,
		diamonds: pricing.DiamondSet{Stones: []pricing.Diamond{pricing.SimpleDiamond{Carat: 0.6, CostPerCarat: 60000}}}},
	{name: "Lakshmi Haar", category: "Necklaces", weight: 28, quality: pricing.Gold22K, making: 600, base: 2500},
	{name: "Pearl Drop Earrings", category: "Earrings", weight: 5.1, quality: pricing.Gold18K, making: 700, base: 3200},
	{name: "Kada Bangle", category: "Bangles", weight: 18.5, quality: pricing.Gold22K, making: 500},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("component", "seeder").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := migrations.Up(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	pool, err := app.OpenDatabase(ctx, cfg.DatabaseURL, "perhiasan-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()

	store := catalog.NewPostgresStore(pool)
	ids, err := seedCategoryTree(ctx, store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed categories")
	}
	if err := seedCatalogItems(ctx, store, ids, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed items")
	}
	logger.Info().Msg("seeding completed")
}

func seedCategoryTree(ctx context.Context, store catalog.Store, logger zerolog.Logger) (map[string]string, error) {
	existing, err := store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	ids := map[string]string{}
	for _, c := range existing {
		ids[c.Name] = c.ID
	}
	for _, sc := range seedCategories {
		if _, ok := ids[sc.name]; ok {
			continue
		}
		c := catalog.Category{Name: sc.name, Description: sc.desc}
		if sc.parent != "" {
			parentID := ids[sc.parent]
			c.ParentID = &parentID
		}
		created, err := store.CreateCategory(ctx, c)
		if errors.Is(err, catalog.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		ids[sc.name] = created.ID
		logger.Info().Str("category", sc.name).Msg("category created")
	}
	return ids, nil
}

func seedCatalogItems(ctx context.Context, store catalog.Store, categories map[string]string, logger zerolog.Logger) error {
	for _, si := range seedItems {
		categoryID, ok := categories[si.category]
		if !ok {
			continue
		}
		current, _, err := store.ListItems(ctx, catalog.ItemFilter{CategoryIDs: []string{categoryID}, Query: si.name, Limit: 1})
		if err != nil {
			return err
		}
		if len(current) > 0 {
			continue
		}
		if _, err := store.CreateItem(ctx, catalog.Item{
			Name:                 si.name,
			CategoryID:           categoryID,
			Images:               []string{},
			GoldWeight:           si.weight,
			GoldQuality:          si.quality,
			Diamonds:             si.diamonds,
			MakingChargesPerGram: si.making,
			BasePrice:            si.base,
		}); err != nil {
			return err
		}
		logger.Info().Str("item", si.name).Msg("item created")
	}
	return nil
}
