package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-perhiasan/internal/catalog"
)

func newRouter(h *catalog.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/categories", h.Categories)
	r.Get("/categories/{id}", h.Category)
	r.Get("/categories/{id}/subcategories", h.Subcategories)
	r.Get("/items", h.Items)
	r.Get("/items/{id}", h.Item)
	r.Post("/admin/categories", h.CreateCategory)
	r.Put("/admin/categories/{id}", h.UpdateCategory)
	r.Delete("/admin/categories/{id}", h.DeleteCategory)
	r.Post("/admin/items", h.CreateItem)
	r.Put("/admin/items/{id}", h.UpdateItem)
	r.Delete("/admin/items/{id}", h.DeleteItem)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCatalogHandlersRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	router := newRouter(catalog.NewHandler(catalog.HandlerConfig{Service: f.svc}))

	rec := do(t, router, http.MethodPost, "/admin/categories", `{"name":"Rings"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data catalog.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, router, http.MethodPost, "/admin/items", `{
		"name":"Aria","categoryId":"`+created.Data.ID+`","goldWeight":10,"goldQuality":"24K",
		"diamonds":{"stones":[{"kind":"simple","carat":0.5,"costPerCarat":40000}]},
		"makingChargesPerGram":100,"basePrice":500}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item struct {
		Data catalog.Item `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	require.Equal(t, 1, item.Data.Diamonds.Count())

	rec = do(t, router, http.MethodGet, "/items?categoryId="+created.Data.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	var list struct {
		Data []struct {
			ID             string  `json:"id"`
			Price          float64 `json:"price"`
			FormattedPrice string  `json:"formattedPrice"`
			GoldWeightText string  `json:"goldWeightText"`
		} `json:"data"`
		Pagination struct {
			Page       int  `json:"page"`
			Total      int  `json:"total"`
			TotalPages int  `json:"totalPages"`
			HasNext    bool `json:"hasNext"`
		} `json:"pagination"`
		Meta struct {
			GoldPricePerGram float64 `json:"goldPricePerGram"`
			GoldPriceSource  string  `json:"goldPriceSource"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.Equal(t, "₹83,945", list.Data[0].FormattedPrice)
	require.Equal(t, "10.00g", list.Data[0].GoldWeightText)
	require.Equal(t, 1, list.Pagination.Total)
	require.Equal(t, 1, list.Pagination.TotalPages)
	require.False(t, list.Pagination.HasNext)
	require.Equal(t, 6000.0, list.Meta.GoldPricePerGram)
	require.Equal(t, "live", list.Meta.GoldPriceSource)

	rec = do(t, router, http.MethodGet, "/items/"+item.Data.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodDelete, "/admin/categories/"+created.Data.ID, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), `"items":1`)

	rec = do(t, router, http.MethodDelete, "/admin/items/"+item.Data.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodDelete, "/admin/categories/"+created.Data.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCatalogHandlersErrors(t *testing.T) {
	f := newFixture(t, nil)
	router := newRouter(catalog.NewHandler(catalog.HandlerConfig{Service: f.svc}))

	rec := do(t, router, http.MethodGet, "/categories/"+uuid.NewString(), "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NOT_FOUND")

	rec = do(t, router, http.MethodPost, "/admin/categories", `{"name":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_BODY")

	rec = do(t, router, http.MethodPost, "/admin/items", `{"name":"x","categoryId":"not-a-uuid"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "categoryId")

	rec = do(t, router, http.MethodGet, "/items?category="+uuid.NewString(), "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoriesParentFilter(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	rings, err := f.svc.CreateCategory(ctx, catalog.CategoryInput{Name: "Rings"})
	require.NoError(t, err)
	_, err = f.svc.CreateCategory(ctx, catalog.CategoryInput{Name: "Bands", ParentID: &rings.ID})
	require.NoError(t, err)
	router := newRouter(catalog.NewHandler(catalog.HandlerConfig{Service: f.svc}))

	count := func(path string) int {
		rec := do(t, router, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data []catalog.Category `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return len(resp.Data)
	}
	require.Equal(t, 2, count("/categories"))
	require.Equal(t, 1, count("/categories?parentId=root"))
	require.Equal(t, 1, count("/categories/"+rings.ID+"/subcategories"))
}

func TestHandlerWithoutService(t *testing.T) {
	router := newRouter(catalog.NewHandler(catalog.HandlerConfig{}))
	rec := do(t, router, http.MethodGet, "/categories", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
