// Package catalog owns the in-memory product cache and the product CRUD
// rules. The cache is replaced wholesale on every load; there is no
// incremental merge.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/balcao-pos/api/internal/store"
	"github.com/shopspring/decimal"
)

// Field bounds for the product form.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
)

// MaxPrice is the highest unit price the catalog accepts.
var MaxPrice = decimal.NewFromFloat(9999.99)

// Validation errors for product create/update.
var (
	ErrNameRequired       = errors.New("name is required")
	ErrNameTooLong        = fmt.Errorf("name must be at most %d characters", MaxNameLength)
	ErrPriceNegative      = errors.New("price must be >= 0")
	ErrPriceTooHigh       = errors.New("price must be at most 9999.99")
	ErrDescriptionTooLong = fmt.Errorf("description must be at most %d characters", MaxDescriptionLength)
)

// ProductStore defines the backend methods the catalog needs.
// Satisfied by *store.Store; narrow interface for testability.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]store.Product, error)
	InsertProduct(ctx context.Context, arg store.ProductParams) (store.Product, error)
	UpdateProduct(ctx context.Context, id int64, arg store.ProductParams) (store.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// Service caches the purchasable products and runs catalog CRUD.
type Service struct {
	store ProductStore

	mu       sync.RWMutex
	products []store.Product
	loaded   bool
}

func NewService(st ProductStore) *Service {
	return &Service{store: st}
}

// Load fetches all products ordered by name and replaces the cache.
// An empty catalog is not an error; callers check Empty to block order
// creation with a specific message. A backend failure leaves the previous
// cache in place so the caller decides whether to retry.
func (s *Service) Load(ctx context.Context) ([]store.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	s.mu.Lock()
	s.products = products
	s.loaded = true
	s.mu.Unlock()
	return products, nil
}

// Products returns a copy of the cached list.
func (s *Service) Products() []store.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Empty reports whether the last load found no products.
func (s *Service) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products) == 0
}

// PriceOf resolves a product's cached unit price. The second result is
// false when the product is not in the cache.
func (s *Service) PriceOf(productID int64) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == productID {
			return p.Price, true
		}
	}
	return decimal.Zero, false
}

// Validate applies the product form rules in declaration order.
func Validate(arg store.ProductParams) error {
	if arg.Name == "" {
		return ErrNameRequired
	}
	if len([]rune(arg.Name)) > MaxNameLength {
		return ErrNameTooLong
	}
	if arg.Price.IsNegative() {
		return ErrPriceNegative
	}
	if arg.Price.GreaterThan(MaxPrice) {
		return ErrPriceTooHigh
	}
	if arg.Description != nil && len([]rune(*arg.Description)) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// Create validates and inserts a product, then refreshes the cache so the
// order builder sees it immediately.
func (s *Service) Create(ctx context.Context, arg store.ProductParams) (store.Product, error) {
	if err := Validate(arg); err != nil {
		return store.Product{}, err
	}
	p, err := s.store.InsertProduct(ctx, arg)
	if err != nil {
		return store.Product{}, err
	}
	if _, err := s.Load(ctx); err != nil {
		// The insert succeeded; a stale cache is recoverable.
		return p, nil
	}
	return p, nil
}

// Update validates and overwrites a product's mutable fields.
func (s *Service) Update(ctx context.Context, id int64, arg store.ProductParams) (store.Product, error) {
	if err := Validate(arg); err != nil {
		return store.Product{}, err
	}
	p, err := s.store.UpdateProduct(ctx, id, arg)
	if err != nil {
		return store.Product{}, err
	}
	if _, err := s.Load(ctx); err != nil {
		return p, nil
	}
	return p, nil
}

// Delete removes a product. The backend enforces referential integrity:
// a product referenced by any order item fails with a foreign key
// violation the handler maps to a friendly message.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}
