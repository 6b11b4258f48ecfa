// Package store is the table gateway for the hosted backend. It owns the
// table names, column mappings, and row shapes; everything above it works
// with typed rows and never sees a query string.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/balcao-pos/api/internal/backend"
	"github.com/balcao-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an update or delete matched no row.
var ErrNotFound = errors.New("not found")

// Table names on the hosted backend.
const (
	tableProducts   = "produtos"
	tableOrders     = "pedidos"
	tableOrderItems = "item_pedido"
)

// orderSelect is the eager join used by the listing: every order with its
// items and each item's product, priced live from the catalog.
const orderSelect = "*, item_pedido(quantidade, produtos(id,nome,preco,descricao))"

// Product is a row of produtos.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"nome"`
	Price       decimal.Decimal `json:"preco"`
	Description *string         `json:"descricao"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ProductParams are the mutable product fields for insert and update.
type ProductParams struct {
	Name        string          `json:"nome"`
	Price       decimal.Decimal `json:"preco"`
	Description *string         `json:"descricao"`
}

// Order is a row of pedidos: the order header without its items.
type Order struct {
	ID       int64       `json:"id"`
	Customer string      `json:"cliente"`
	Status   enum.Status `json:"status"`
	Date     time.Time   `json:"data"`
}

// OrderParams are the header fields written at submission time.
type OrderParams struct {
	Customer string      `json:"cliente"`
	Status   enum.Status `json:"status"`
	Date     time.Time   `json:"data"`
}

// OrderItemParams is one line of the batch item insert.
type OrderItemParams struct {
	OrderID   int64 `json:"pedido_id"`
	ProductID int64 `json:"produto_id"`
	Quantity  int64 `json:"quantidade"`
}

// OrderItemRow is an item as returned by the listing join. The embedded
// product carries the current price, not the price at submission time.
type OrderItemRow struct {
	Quantity int64   `json:"quantidade"`
	Product  Product `json:"produtos"`
}

// OrderWithItems is the listing row shape.
type OrderWithItems struct {
	Order
	Items []OrderItemRow `json:"item_pedido"`
}

// Store executes typed queries against the backend tables.
type Store struct {
	client *backend.Client
}

func New(client *backend.Client) *Store {
	return &Store{client: client}
}

// ListProducts returns the whole catalog ordered by name.
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	err := s.client.From(tableProducts).
		Select("*").
		Order("nome", true).
		Do(ctx, &products)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// InsertProduct creates a product and returns it with its assigned id.
func (s *Store) InsertProduct(ctx context.Context, arg ProductParams) (Product, error) {
	var p Product
	err := s.client.From(tableProducts).
		Insert([]ProductParams{arg}).
		Single().
		Do(ctx, &p)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// UpdateProduct overwrites the mutable fields of one product.
func (s *Store) UpdateProduct(ctx context.Context, id int64, arg ProductParams) (Product, error) {
	var rows []Product
	err := s.client.From(tableProducts).
		Update(arg).
		Eq("id", id).
		Do(ctx, &rows)
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	if len(rows) == 0 {
		return Product{}, ErrNotFound
	}
	return rows[0], nil
}

// DeleteProduct removes a product. The backend rejects the delete with a
// foreign key violation while any order item still references it.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	var rows []Product
	err := s.client.From(tableProducts).
		Delete().
		Eq("id", id).
		Do(ctx, &rows)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertOrder creates the order header and returns it with the
// backend-assigned identifier the item rows must reference.
func (s *Store) InsertOrder(ctx context.Context, arg OrderParams) (Order, error) {
	var o Order
	err := s.client.From(tableOrders).
		Insert([]OrderParams{arg}).
		Single().
		Do(ctx, &o)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

// InsertOrderItems writes all item rows in a single batch call.
// The backend never reports partial success for one call.
func (s *Store) InsertOrderItems(ctx context.Context, items []OrderItemParams) error {
	if err := s.client.From(tableOrderItems).Insert(items).Do(ctx, nil); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

// ListOrdersWithItems returns every order, newest first, with items and
// product prices eagerly joined.
func (s *Store) ListOrdersWithItems(ctx context.Context) ([]OrderWithItems, error) {
	var orders []OrderWithItems
	err := s.client.From(tableOrders).
		Select(orderSelect).
		Order("data", false).
		Do(ctx, &orders)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus writes the status field only. The backend schema has no
// updated_at column for orders, so nothing else is touched.
func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status enum.Status) error {
	var rows []Order
	err := s.client.From(tableOrders).
		Update(map[string]enum.Status{"status": status}).
		Eq("id", id).
		Do(ctx, &rows)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOrder removes the header; the backend cascade removes its items.
func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	var rows []Order
	err := s.client.From(tableOrders).
		Delete().
		Eq("id", id).
		Do(ctx, &rows)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}
