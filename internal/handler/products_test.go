package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/balcao-pos/api/internal/backend"
	"github.com/balcao-pos/api/internal/catalog"
	"github.com/balcao-pos/api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// --- Mock CatalogService ---

type mockCatalogService struct {
	loadFn   func(ctx context.Context) ([]store.Product, error)
	createFn func(ctx context.Context, arg store.ProductParams) (store.Product, error)
	updateFn func(ctx context.Context, id int64, arg store.ProductParams) (store.Product, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockCatalogService) Load(ctx context.Context) ([]store.Product, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return []store.Product{}, nil
}

func (m *mockCatalogService) Create(ctx context.Context, arg store.ProductParams) (store.Product, error) {
	if m.createFn != nil {
		return m.createFn(ctx, arg)
	}
	return store.Product{}, errors.New("unexpected Create")
}

func (m *mockCatalogService) Update(ctx context.Context, id int64, arg store.ProductParams) (store.Product, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, arg)
	}
	return store.Product{}, errors.New("unexpected Update")
}

func (m *mockCatalogService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return errors.New("unexpected Delete")
}

func newProductRouter(svc CatalogService) chi.Router {
	r := chi.NewRouter()
	h := NewProductHandler(svc)
	r.Route("/products", h.RegisterRoutes)
	return r
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

// --- List ---

func TestListProducts(t *testing.T) {
	svc := &mockCatalogService{
		loadFn: func(ctx context.Context) ([]store.Product, error) {
			return []store.Product{
				{ID: 1, Name: "Coxinha", Price: mustDec(t, "8")},
			}, nil
		},
	}
	r := newProductRouter(svc)

	req := httptest.NewRequest("GET", "/products", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Products []struct {
			Name  string `json:"name"`
			Price string `json:"price"`
		} `json:"products"`
		Empty bool `json:"empty"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Products) != 1 || resp.Empty {
		t.Fatalf("resp = %+v", resp)
	}
	// Prices always render with two decimal places.
	if resp.Products[0].Price != "8.00" {
		t.Errorf("price = %q", resp.Products[0].Price)
	}
}

func TestListProductsEmptyFlag(t *testing.T) {
	r := newProductRouter(&mockCatalogService{})

	req := httptest.NewRequest("GET", "/products", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Empty bool `json:"empty"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Empty {
		t.Error("empty flag not set for an empty catalog")
	}
}

func TestListProductsBackendFailure(t *testing.T) {
	svc := &mockCatalogService{
		loadFn: func(ctx context.Context) ([]store.Product, error) {
			return nil, errors.New("connection refused")
		},
	}
	r := newProductRouter(svc)

	req := httptest.NewRequest("GET", "/products", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d", rec.Code)
	}
}

// --- Create ---

func TestCreateProduct(t *testing.T) {
	var got store.ProductParams
	svc := &mockCatalogService{
		createFn: func(ctx context.Context, arg store.ProductParams) (store.Product, error) {
			got = arg
			return store.Product{ID: 3, Name: arg.Name, Price: arg.Price, Description: arg.Description}, nil
		},
	}
	r := newProductRouter(svc)

	body := `{"name":"Quibe","price":"7.50","description":"frito"}`
	req := httptest.NewRequest("POST", "/products", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got.Name != "Quibe" || !got.Price.Equal(mustDec(t, "7.50")) {
		t.Errorf("params = %+v", got)
	}
	if got.Description == nil || *got.Description != "frito" {
		t.Errorf("description = %v", got.Description)
	}
}

func TestCreateProductInvalidPrice(t *testing.T) {
	r := newProductRouter(&mockCatalogService{})

	body := `{"name":"Quibe","price":"abc"}`
	req := httptest.NewRequest("POST", "/products", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestCreateProductValidationMapsTo400(t *testing.T) {
	svc := &mockCatalogService{
		createFn: func(ctx context.Context, arg store.ProductParams) (store.Product, error) {
			return store.Product{}, catalog.ErrPriceTooHigh
		},
	}
	r := newProductRouter(svc)

	body := `{"name":"Quibe","price":"10000.00"}`
	req := httptest.NewRequest("POST", "/products", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestCreateProductDuplicateMapsTo409(t *testing.T) {
	svc := &mockCatalogService{
		createFn: func(ctx context.Context, arg store.ProductParams) (store.Product, error) {
			return store.Product{}, &backend.Error{StatusCode: 409, Code: "23505", Message: "duplicate key"}
		},
	}
	r := newProductRouter(svc)

	body := `{"name":"Coxinha","price":"8.00"}`
	req := httptest.NewRequest("POST", "/products", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["error"] == "" || resp["error"] == "duplicate key" {
		t.Errorf("error = %q, want a friendly message", resp["error"])
	}
}

// --- Update ---

func TestUpdateProduct(t *testing.T) {
	svc := &mockCatalogService{
		updateFn: func(ctx context.Context, id int64, arg store.ProductParams) (store.Product, error) {
			return store.Product{ID: id, Name: arg.Name, Price: arg.Price}, nil
		},
	}
	r := newProductRouter(svc)

	body := `{"name":"Coxinha G","price":"9.00"}`
	req := httptest.NewRequest("PUT", "/products/1", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	svc := &mockCatalogService{
		updateFn: func(ctx context.Context, id int64, arg store.ProductParams) (store.Product, error) {
			return store.Product{}, store.ErrNotFound
		},
	}
	r := newProductRouter(svc)

	body := `{"name":"Coxinha","price":"8.00"}`
	req := httptest.NewRequest("PUT", "/products/99", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

// --- Delete ---

func TestDeleteProduct(t *testing.T) {
	var gotID int64
	svc := &mockCatalogService{
		deleteFn: func(ctx context.Context, id int64) error {
			gotID = id
			return nil
		},
	}
	r := newProductRouter(svc)

	req := httptest.NewRequest("DELETE", "/products/2", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotID != 2 {
		t.Errorf("deleted id = %d", gotID)
	}
}

func TestDeleteProductReferencedMapsTo409(t *testing.T) {
	svc := &mockCatalogService{
		deleteFn: func(ctx context.Context, id int64) error {
			return &backend.Error{StatusCode: 409, Code: "23503", Message: "violates foreign key constraint"}
		},
	}
	r := newProductRouter(svc)

	req := httptest.NewRequest("DELETE", "/products/1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d", rec.Code)
	}
}
