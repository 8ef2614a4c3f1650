package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-perhiasan/internal/assets"
	"github.com/noah-isme/backend-perhiasan/internal/common"
	"github.com/noah-isme/backend-perhiasan/internal/goldprice"
	"github.com/noah-isme/backend-perhiasan/internal/pricing"
)

// PriceSource resolves the gold price and the settings it was resolved with.
type PriceSource interface {
	Resolve(ctx context.Context, override *bool) goldprice.Quote
}

// ImageRemover deletes stored images by URL.
type ImageRemover interface {
	Delete(ctx context.Context, urls []string) assets.DeleteSummary
}

// Service orchestrates catalog persistence, live pricing and caching.
type Service struct {
	store        Store
	cache        *Cache
	prices       PriceSource
	images       ImageRemover
	logger       zerolog.Logger
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        Store
	Cache        *Cache
	Prices       PriceSource
	Images       ImageRemover
	Logger       zerolog.Logger
	DefaultLimit int
	MaxLimit     int
}

// ItemQuery captures public listing filters.
type ItemQuery struct {
	CategoryID string
	Query      string
	Page       int
	Limit      int
}

// ItemPage is one page of priced items.
type ItemPage struct {
	Items           []PricedItem
	Total           int
	Page            int
	Limit           int
	GoldPrice       float64
	GoldPriceSource goldprice.Source
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	if cfg.Prices == nil {
		return nil, errors.New("catalog: price source is required")
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		prices:       cfg.Prices,
		images:       cfg.Images,
		logger:       cfg.Logger,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ListCategories returns every category sorted by name, served from cache when possible.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	cached, ok, err := s.cache.Categories(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("category cache read failed")
	}
	if ok {
		return cached, nil
	}
	rows, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
	if err := s.cache.PutCategories(ctx, rows); err != nil {
		s.logger.Warn().Err(err).Msg("category cache write failed")
	}
	return rows, nil
}

// Subcategories returns the direct children of parentID, or the top-level
// categories when parentID is empty.
func (s *Service) Subcategories(ctx context.Context, parentID string) ([]Category, error) {
	all, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if parentID != "" {
		if _, ok := findCategory(all, parentID); !ok {
			return nil, common.NotFound("category not found", ErrNotFound)
		}
	}
	out := []Category{}
	for _, c := range all {
		if parentKey(c) == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetCategory returns a single category.
func (s *Service) GetCategory(ctx context.Context, id string) (Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return Category{}, categoryError(err)
	}
	return c, nil
}

// CreateCategory validates and persists a new category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Category{}, err
	}
	parentID := normaliseParent(in.ParentID)
	if parentID != nil {
		if _, err := s.store.GetCategory(ctx, *parentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return Category{}, common.Validation("invalid payload", map[string]string{"parentId": "does not exist"})
			}
			return Category{}, fmt.Errorf("load parent category: %w", err)
		}
	}
	created, err := s.store.CreateCategory(ctx, Category{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    in.ImageURL,
		ParentID:    parentID,
	})
	if err != nil {
		return Category{}, categoryError(err)
	}
	s.invalidateCategories(ctx)
	return created, nil
}

// UpdateCategory replaces a category's fields. Moving a category beneath
// itself or one of its descendants is rejected.
func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (Category, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Category{}, err
	}
	existing, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return Category{}, categoryError(err)
	}
	parentID := normaliseParent(in.ParentID)
	if parentID != nil {
		all, err := s.store.ListCategories(ctx)
		if err != nil {
			return Category{}, fmt.Errorf("list categories: %w", err)
		}
		if _, ok := findCategory(all, *parentID); !ok {
			return Category{}, common.Validation("invalid payload", map[string]string{"parentId": "does not exist"})
		}
		if createsCycle(all, id, *parentID) {
			return Category{}, common.Validation("invalid payload", map[string]string{"parentId": "cannot be the category itself or one of its descendants"})
		}
	}
	updated, err := s.store.UpdateCategory(ctx, Category{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    in.ImageURL,
		ParentID:    parentID,
	})
	if err != nil {
		return Category{}, categoryError(err)
	}
	s.invalidateCategories(ctx)
	if existing.ImageURL != "" && existing.ImageURL != updated.ImageURL {
		s.removeImages(ctx, "category", id, []string{existing.ImageURL})
	}
	return updated, nil
}

// DeleteCategory removes a category that has no children and no items.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	existing, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return categoryError(err)
	}
	children, items, err := s.store.CountCategoryDependents(ctx, id)
	if err != nil {
		return fmt.Errorf("count dependents: %w", err)
	}
	if children > 0 || items > 0 {
		appErr := common.Conflict("category is not empty", ErrReferenced)
		appErr.Details = map[string]int{"subcategories": children, "items": items}
		return appErr
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return categoryError(err)
	}
	s.invalidateCategories(ctx)
	if existing.ImageURL != "" {
		s.removeImages(ctx, "category", id, []string{existing.ImageURL})
	}
	return nil
}

// ListItems returns a page of items priced at a single gold price resolution.
// Filtering by category includes every descendant category.
func (s *Service) ListItems(ctx context.Context, q ItemQuery) (ItemPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	filter := ItemFilter{Query: q.Query, Offset: (page - 1) * limit, Limit: limit}
	if q.CategoryID != "" {
		all, err := s.ListCategories(ctx)
		if err != nil {
			return ItemPage{}, err
		}
		if _, ok := findCategory(all, q.CategoryID); !ok {
			return ItemPage{}, common.NotFound("category not found", ErrNotFound)
		}
		filter.CategoryIDs = descendants(all, q.CategoryID)
	}

	rows, total, err := s.store.ListItems(ctx, filter)
	if err != nil {
		return ItemPage{}, fmt.Errorf("list items: %w", err)
	}
	quote := s.prices.Resolve(ctx, nil)
	items := make([]PricedItem, 0, len(rows))
	for _, it := range rows {
		items = append(items, price(it, quote))
	}
	return ItemPage{
		Items:           items,
		Total:           total,
		Page:            page,
		Limit:           limit,
		GoldPrice:       quote.PricePerGram,
		GoldPriceSource: quote.Source,
	}, nil
}

// GetItem returns an item priced at the current gold price.
func (s *Service) GetItem(ctx context.Context, id string) (PricedItem, error) {
	it, err := s.store.GetItem(ctx, id)
	if err != nil {
		return PricedItem{}, itemError(err)
	}
	return price(it, s.prices.Resolve(ctx, nil)), nil
}

// CreateItem validates and persists a new item.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (Item, error) {
	it, err := s.itemFromInput(ctx, in)
	if err != nil {
		return Item{}, err
	}
	created, err := s.store.CreateItem(ctx, it)
	if err != nil {
		return Item{}, itemError(err)
	}
	return created, nil
}

// UpdateItem replaces an item's fields. Images dropped from the item are
// removed from the asset store.
func (s *Service) UpdateItem(ctx context.Context, id string, in ItemInput) (Item, error) {
	existing, err := s.store.GetItem(ctx, id)
	if err != nil {
		return Item{}, itemError(err)
	}
	it, err := s.itemFromInput(ctx, in)
	if err != nil {
		return Item{}, err
	}
	it.ID = id
	updated, err := s.store.UpdateItem(ctx, it)
	if err != nil {
		return Item{}, itemError(err)
	}
	if dropped := missing(existing.Images, updated.Images); len(dropped) > 0 {
		s.removeImages(ctx, "item", id, dropped)
	}
	return updated, nil
}

// DeleteItem removes an item and then its images.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteItem(ctx, id)
	if err != nil {
		return itemError(err)
	}
	if len(deleted.Images) > 0 {
		s.removeImages(ctx, "item", id, deleted.Images)
	}
	return nil
}

func (s *Service) itemFromInput(ctx context.Context, in ItemInput) (Item, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Item{}, err
	}
	if err := in.Diamonds.Validate(); err != nil {
		return Item{}, common.Validation("invalid payload", map[string]string{"diamonds": err.Error()})
	}
	if _, err := s.store.GetCategory(ctx, in.CategoryID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Item{}, common.Validation("invalid payload", map[string]string{"categoryId": "does not exist"})
		}
		return Item{}, fmt.Errorf("load category: %w", err)
	}
	images := make([]string, 0, len(in.Images))
	for _, u := range in.Images {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, u)
		}
	}
	return Item{
		Name:                 strings.TrimSpace(in.Name),
		Description:          strings.TrimSpace(in.Description),
		CategoryID:           in.CategoryID,
		Images:               images,
		GoldWeight:           in.GoldWeight,
		GoldQuality:          in.GoldQuality,
		Diamonds:             in.Diamonds,
		MakingChargesPerGram: in.MakingChargesPerGram,
		BasePrice:            in.BasePrice,
	}, nil
}

func (s *Service) removeImages(ctx context.Context, kind, id string, urls []string) {
	if s.images == nil {
		return
	}
	summary := s.images.Delete(ctx, urls)
	evt := s.logger.Info()
	if summary.Failed > 0 {
		evt = s.logger.Warn().Strs("errors", summary.Errors)
	}
	evt.Str(kind+"_id", id).
		Int("total", summary.Total).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Msg("images removed")
}

func (s *Service) invalidateCategories(ctx context.Context) {
	if err := s.cache.InvalidateCategories(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("category cache invalidation failed")
	}
}

func price(it Item, q goldprice.Quote) PricedItem {
	breakdown := pricing.GetPriceBreakdown(it.PricingInput(q.PricePerGram, q.Settings.GSTRate))
	var carat string
	if it.Diamonds.Count() > 0 {
		carat = pricing.FormatCarat(it.Diamonds.TotalCarat())
	}
	return PricedItem{
		Item:           it,
		Price:          breakdown.Total,
		FormattedPrice: pricing.FormatINR(breakdown.Total),
		Breakdown:      breakdown,
		DiamondSummary: it.Diamonds.Summary(),
		GoldWeightText: pricing.FormatWeight(it.GoldWeight),
		DiamondCarat:   carat,
	}
}

func normaliseParent(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	v := strings.TrimSpace(*id)
	return &v
}

func parentKey(c Category) string {
	if c.ParentID == nil {
		return ""
	}
	return *c.ParentID
}

func findCategory(all []Category, id string) (Category, bool) {
	for _, c := range all {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// descendants returns root and every category beneath it.
func descendants(all []Category, root string) []string {
	children := make(map[string][]string, len(all))
	for _, c := range all {
		if p := parentKey(c); p != "" {
			children[p] = append(children[p], c.ID)
		}
	}
	out := []string{}
	seen := map[string]bool{}
	queue := []string{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		queue = append(queue, children[id]...)
	}
	return out
}

func createsCycle(all []Category, id, newParent string) bool {
	for _, d := range descendants(all, id) {
		if d == newParent {
			return true
		}
	}
	return false
}

func missing(before, after []string) []string {
	keep := make(map[string]struct{}, len(after))
	for _, u := range after {
		keep[u] = struct{}{}
	}
	var out []string
	for _, u := range before {
		if _, ok := keep[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}

func categoryError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return common.NotFound("category not found", err)
	case errors.Is(err, ErrDuplicate):
		return common.Conflict("a category with this name already exists under the same parent", err)
	case errors.Is(err, ErrReferenced):
		return common.Conflict("category is referenced by other records", err)
	}
	return err
}

func itemError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return common.NotFound("item not found", err)
	case errors.Is(err, ErrReferenced):
		return common.NewAppError("VALIDATION_ERROR", "category does not exist", http.StatusBadRequest, err)
	}
	return err
}
