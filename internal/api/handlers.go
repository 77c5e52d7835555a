package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/example/storefront-gateway/internal/api/middleware"
	"github.com/example/storefront-gateway/internal/derive"
	"github.com/example/storefront-gateway/internal/state"
)

// Handlers serves the per-session state snapshot and the buyer-facing
// browse/cart operations.
type Handlers struct {
	runtimes *Runtimes
}

func NewHandlers(runtimes *Runtimes) *Handlers {
	return &Handlers{runtimes: runtimes}
}

func (h *Handlers) runtime(r *http.Request) *Runtime {
	return h.runtimes.Get(middleware.GetSessionID(r.Context()))
}

// GetState returns the caller's full AppState snapshot plus derived
// cart totals.
func (h *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	snapshot := h.runtime(r).Store.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"state":       snapshot,
		"cart_totals": derive.TotalsFor(snapshot.Cart),
	})
}

// GetCategories serves the category list through the memoized fetcher.
func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	rt := h.runtime(r)

	categories, err := rt.Fetchers.FetchCategories(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			rt.Store.Dispatch(state.Action{Type: state.ActionSetCategoriesPage, Payload: page})
		}
	}
	respondJSON(w, http.StatusOK, categories)
}

// GetItemTypes serves the item type reference list.
func (h *Handlers) GetItemTypes(w http.ResponseWriter, r *http.Request) {
	itemTypes, err := h.runtime(r).Fetchers.FetchItemTypes(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, itemTypes)
}

// GetBrands serves the brand reference list.
func (h *Handlers) GetBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.runtime(r).Fetchers.FetchBrands(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, brands)
}

// GetCategoryProducts serves one category's products, filtered and
// sorted per the query string.
func (h *Handlers) GetCategoryProducts(w http.ResponseWriter, r *http.Request) {
	categoryID := extractPathParam(r.URL.Path, "/categories/")
	rt := h.runtime(r)

	products, err := rt.Fetchers.FetchCategoryProducts(r.Context(), categoryID)
	if err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}

	q := r.URL.Query()
	filter := derive.Filter{
		Query:  q.Get("q"),
		Brands: q["brand"],
	}
	filter.MinPrice, _ = strconv.ParseFloat(q.Get("min_price"), 64)
	filter.MaxPrice, _ = strconv.ParseFloat(q.Get("max_price"), 64)
	filter.MinRating, _ = strconv.ParseFloat(q.Get("min_rating"), 64)
	filter.MinDiscount, _ = strconv.ParseFloat(q.Get("min_discount"), 64)

	products = derive.FilterProducts(products, filter)
	if order := q.Get("sort"); order != "" {
		products = derive.SortProducts(products, order)
	}

	snapshot := rt.Store.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"category_info": snapshot.CategoryInfo,
		"products":      products,
	})
}

// GetProduct serves a product detail page: the product, its comments
// with their average rating, and related products.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/products/")
	rt := h.runtime(r)

	product, err := rt.Fetchers.FetchProductDetails(r.Context(), productID)
	if err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}

	snapshot := rt.Store.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"product":          product,
		"discounted_price": derive.DiscountedPrice(product.Price, product.Discount),
		"comments":         snapshot.ProductComments,
		"average_rating":   derive.AverageRating(snapshot.ProductComments),
		"related":          snapshot.RelatedProducts,
	})
}

// Search runs a keyed search across products and categories.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	categoryID := r.URL.Query().Get("category")

	results, err := h.runtime(r).Fetchers.Search(r.Context(), query, categoryID)
	if err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// AddToCart merges a line into the caller's cart.
func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rt := h.runtime(r)
	if err := rt.Fetchers.AddToCart(r.Context(), req.ProductID, req.Quantity); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot := rt.Store.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"cart":        snapshot.Cart,
		"cart_totals": derive.TotalsFor(snapshot.Cart),
	})
}

// ClearCart empties the caller's cart.
func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	rt := h.runtime(r)
	rt.Fetchers.ClearCart()

	snapshot := rt.Store.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"cart":        snapshot.Cart,
		"cart_totals": derive.TotalsFor(snapshot.Cart),
	})
}

// SetCartQuantity changes the quantity of an existing cart line.
func (h *Handlers) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/cart/items/")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rt := h.runtime(r)
	if err := rt.Fetchers.SetCartQuantity(productID, req.Quantity); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot := rt.Store.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"cart":        snapshot.Cart,
		"cart_totals": derive.TotalsFor(snapshot.Cart),
	})
}

// RemoveFromCart drops a cart line; removing an absent product id is a
// no-op.
func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/cart/items/")
	rt := h.runtime(r)
	rt.Fetchers.RemoveFromCart(productID)

	snapshot := rt.Store.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"cart":        snapshot.Cart,
		"cart_totals": derive.TotalsFor(snapshot.Cart),
	})
}

// AddComment posts a review on a product.
func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/products/")

	var req struct {
		Text   string  `json:"text"`
		Rating float64 `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	comment, err := h.runtime(r).Fetchers.AddComment(r.Context(), productID, req.Text, req.Rating)
	if err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

// ReactToComment records a like or dislike on a comment.
func (h *Handlers) ReactToComment(w http.ResponseWriter, r *http.Request) {
	commentID := extractPathParam(r.URL.Path, "/comments/")

	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.runtime(r).Fetchers.ReactToComment(r.Context(), commentID, req.Type); err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}
