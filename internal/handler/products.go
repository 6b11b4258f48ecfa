package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/balcao-pos/api/internal/backend"
	"github.com/balcao-pos/api/internal/catalog"
	"github.com/balcao-pos/api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// CatalogService defines the catalog methods needed by product handlers.
// Satisfied by *catalog.Service; narrow interface for testability.
type CatalogService interface {
	Load(ctx context.Context) ([]store.Product, error)
	Create(ctx context.Context, arg store.ProductParams) (store.Product, error)
	Update(ctx context.Context, id int64, arg store.ProductParams) (store.Product, error)
	Delete(ctx context.Context, id int64) error
}

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	svc CatalogService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(svc CatalogService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// RegisterRoutes registers product CRUD endpoints on the given Chi router.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type productRequest struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

type productResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Price       string    `json:"price"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// productListResponse flags the empty catalog so the UI can block order
// creation with its specific message.
type productListResponse struct {
	Products []productResponse `json:"products"`
	Empty    bool              `json:"empty"`
}

func toProductResponse(p store.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price.StringFixed(2),
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func (req productRequest) toParams() (store.ProductParams, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return store.ProductParams{}, err
	}
	params := store.ProductParams{Name: req.Name, Price: price}
	if req.Description != "" {
		d := req.Description
		params.Description = &d
	}
	return params, nil
}

func isCatalogValidationError(err error) bool {
	return errors.Is(err, catalog.ErrNameRequired) ||
		errors.Is(err, catalog.ErrNameTooLong) ||
		errors.Is(err, catalog.ErrPriceNegative) ||
		errors.Is(err, catalog.ErrPriceTooHigh) ||
		errors.Is(err, catalog.ErrDescriptionTooLong)
}

// --- Handlers ---

// List handles GET /products. Each call refreshes the cache so the
// new-order form always offers the current catalog.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Load(r.Context())
	if err != nil {
		log.Printf("ERROR: load catalog: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": backend.FriendlyMessage(err)})
		return
	}

	resp := productListResponse{
		Products: make([]productResponse, len(products)),
		Empty:    len(products) == 0,
	}
	for i, p := range products {
		resp.Products[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, err := req.toParams()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	product, err := h.svc.Create(r.Context(), params)
	if err != nil {
		if isCatalogValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if backend.IsUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": backend.FriendlyMessage(err)})
			return
		}
		log.Printf("ERROR: create product: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": backend.FriendlyMessage(err)})
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

// Update handles PUT /products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, err := req.toParams()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	product, err := h.svc.Update(r.Context(), id, params)
	if err != nil {
		if isCatalogValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		if backend.IsUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": backend.FriendlyMessage(err)})
			return
		}
		log.Printf("ERROR: update product: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": backend.FriendlyMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// Delete handles DELETE /products/{id}. A product referenced by order
// items cannot be removed; the backend's integrity error is mapped to a
// friendly conflict.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		if backend.IsForeignKeyViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": backend.FriendlyMessage(err)})
			return
		}
		log.Printf("ERROR: delete product: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": backend.FriendlyMessage(err)})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
