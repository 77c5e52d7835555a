package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/example/storefront-gateway/internal/api/middleware"
	"github.com/example/storefront-gateway/internal/catalog"
	"github.com/example/storefront-gateway/internal/fetch"
	"github.com/example/storefront-gateway/internal/remote"
)

// SellerHandlers serves the seller dashboard and product mutations.
type SellerHandlers struct {
	runtimes *Runtimes
}

func NewSellerHandlers(runtimes *Runtimes) *SellerHandlers {
	return &SellerHandlers{runtimes: runtimes}
}

func (h *SellerHandlers) runtime(r *http.Request) *Runtime {
	return h.runtimes.Get(middleware.GetSessionID(r.Context()))
}

// GetDashboard serves the seller's products and orders.
func (h *SellerHandlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.runtime(r).Fetchers.FetchSellerData(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, data)
}

// CreateProduct uploads a new product with images (multipart form).
func (h *SellerHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondJSONError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	form := fetch.NewProductForm{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Brand:       r.FormValue("brand"),
		CategoryID:  r.FormValue("category_id"),
	}
	form.Price, _ = strconv.ParseFloat(r.FormValue("price"), 64)
	form.Discount, _ = strconv.ParseFloat(r.FormValue("discount"), 64)
	form.Stock, _ = strconv.Atoi(r.FormValue("stock"))

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				respondJSONError(w, "Unreadable upload", http.StatusBadRequest)
				return
			}
			defer file.Close()
			form.Images = append(form.Images, remote.File{
				Field:    "images",
				Name:     header.Filename,
				Contents: file,
			})
		}
	}

	product, err := h.runtime(r).Fetchers.CreateProduct(r.Context(), form)
	if err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// UpdateProduct replaces a product with the submitted version.
func (h *SellerHandlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/seller/products/")

	var product catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	product.ID = productID

	updated, err := h.runtime(r).Fetchers.UpdateProduct(r.Context(), product)
	if err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// ToggleProductStatus activates or deactivates one product.
func (h *SellerHandlers) ToggleProductStatus(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/seller/products/")

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.runtime(r).Fetchers.ToggleProductStatus(r.Context(), productID, req.IsActive); err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product status updated"})
}

// DeleteProduct removes one of the seller's products.
func (h *SellerHandlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/seller/products/")

	if err := h.runtime(r).Fetchers.DeleteProduct(r.Context(), productID); err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// UpdateOrderStatus moves one order to a new status.
func (h *SellerHandlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := extractPathParam(r.URL.Path, "/seller/orders/")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.runtime(r).Fetchers.UpdateOrderStatus(r.Context(), orderID, req.Status); err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Order status updated"})
}
