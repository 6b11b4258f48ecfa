package order

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/balcao-pos/api/internal/enum"
	"github.com/balcao-pos/api/internal/money"
	"github.com/balcao-pos/api/internal/store"
	"github.com/shopspring/decimal"
)

// FilterAll is the status filter value that shows every order.
const FilterAll = "all"

// OrderStore defines the backend methods the order workflows need.
// Satisfied by *store.Store; narrow interface for testability.
type OrderStore interface {
	InsertOrder(ctx context.Context, arg store.OrderParams) (store.Order, error)
	InsertOrderItems(ctx context.Context, items []store.OrderItemParams) error
	ListOrdersWithItems(ctx context.Context) ([]store.OrderWithItems, error)
	UpdateOrderStatus(ctx context.Context, id int64, status enum.Status) error
	DeleteOrder(ctx context.Context, id int64) error
}

// EventSink receives order lifecycle events for connected UI clients.
// Satisfied by *ws.Hub.
type EventSink interface {
	Publish(eventType string, payload any)
}

// Event types published on the sink.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderDeleted       = "order.deleted"
)

// ItemView is one order line as shown in the listing, priced live from
// the joined product.
type ItemView struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderView is a cached listing entry with its derived fields. Total is
// recomputed on every load, never carried over a status change.
type OrderView struct {
	ID       int64           `json:"id"`
	Customer string          `json:"customer"`
	Status   enum.Status     `json:"status"`
	Date     time.Time       `json:"date"`
	Items    []ItemView      `json:"items"`
	Lines    []string        `json:"lines"`
	Total    decimal.Decimal `json:"total"`
	Visible  bool            `json:"visible"`
}

// Stats aggregates the full loaded set, regardless of the active filter.
type Stats struct {
	Total      int                 `json:"total"`
	ByStatus   map[enum.Status]int `json:"by_status"`
	Revenue    decimal.Decimal     `json:"revenue"`
	RevenueBRL string              `json:"revenue_brl"`
}

// SubmitResult is the outcome of a successful submission. Total comes
// from the draft's pre-persistence prices; the listing recomputes it from
// the backend join on the next load.
type SubmitResult struct {
	Order store.Order
	Total decimal.Decimal
	// The form should start over and pick up any catalog changes.
	ResetDraft    bool
	ReloadCatalog bool
}

// Confirmation is what the operator must see before a delete proceeds.
type Confirmation struct {
	OrderID   int64  `json:"order_id"`
	Customer  string `json:"customer"`
	ItemCount int    `json:"item_count"`
	Total     string `json:"total"`
}

// Service runs the order workflows and owns the listing cache. The cache
// is mutated only here; handlers read snapshots.
type Service struct {
	store  OrderStore
	events EventSink

	mu         sync.Mutex
	submitting bool
	loading    bool
	orders     []OrderView
	filter     string
}

func NewService(st OrderStore, events EventSink) *Service {
	return &Service{store: st, events: events, filter: FilterAll}
}

// Submit validates a draft and persists it as two sequential writes:
// the order header first, then the item batch stamped with the header's
// backend-assigned id. Overlapping calls are dropped, not queued.
func (s *Service) Submit(ctx context.Context, customer string, status enum.Status, items []DraftItem) (*SubmitResult, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		log.Printf("WARN: submit dropped, another submission is in flight")
		return nil, ErrSubmissionInFlight
	}
	s.submitting = true
	s.mu.Unlock()

	// The guard must be released on every path so the operator can retry.
	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	// Validation short-circuits in order: customer, item count, item
	// completeness. Nothing is written until all pass.
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return nil, ErrCustomerRequired
	}
	if len([]rune(customer)) < 2 {
		return nil, ErrCustomerTooShort
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	for i := range items {
		if items[i].ProductID == 0 {
			return nil, ErrIncompleteItem
		}
		if items[i].Quantity < MinQuantity {
			items[i].Quantity = MinQuantity
		}
	}

	// Step 1: order header. Failure here aborts before any item exists.
	header, err := s.store.InsertOrder(ctx, store.OrderParams{
		Customer: customer,
		Status:   status,
		Date:     time.Now(),
	})
	if err != nil {
		return nil, &PersistenceError{Stage: StageHeader, Err: err}
	}

	// Step 2: item batch, strictly after and conditioned on the header.
	rows := make([]store.OrderItemParams, len(items))
	for i, it := range items {
		rows[i] = store.OrderItemParams{
			OrderID:   header.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		}
	}
	if err := s.store.InsertOrderItems(ctx, rows); err != nil {
		// Best-effort compensation: the backend has no client-visible
		// transaction, so try to remove the headerless order. If that
		// also fails the header stays orphaned and we say so.
		orphaned := false
		if delErr := s.store.DeleteOrder(ctx, header.ID); delErr != nil {
			orphaned = true
			log.Printf("ERROR: compensating delete of order %d failed: %v", header.ID, delErr)
		}
		return nil, &PersistenceError{Stage: StageItems, Orphaned: orphaned, Err: err}
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
	}

	s.publish(EventOrderCreated, map[string]any{
		"order_id": header.ID,
		"customer": header.Customer,
		"status":   header.Status,
		"total":    total,
	})

	return &SubmitResult{
		Order:         header,
		Total:         total,
		ResetDraft:    true,
		ReloadCatalog: true,
	}, nil
}

// LoadAll fetches every order with items and prices eagerly joined,
// newest first, and replaces the cache. A call while another load is in
// flight is a no-op serving the current cache.
func (s *Service) LoadAll(ctx context.Context) ([]OrderView, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		log.Printf("WARN: reload dropped, another load is in flight")
		return s.Orders(), nil
	}
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	rows, err := s.store.ListOrdersWithItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	views := make([]OrderView, len(rows))
	for i, row := range rows {
		views[i] = buildView(row)
	}

	s.mu.Lock()
	s.orders = views
	s.applyFilterLocked(s.filter)
	out := snapshotLocked(s.orders)
	s.mu.Unlock()
	return out, nil
}

func buildView(row store.OrderWithItems) OrderView {
	v := OrderView{
		ID:       row.ID,
		Customer: row.Customer,
		Status:   row.Status,
		Date:     row.Date,
		Total:    decimal.Zero,
		Visible:  true,
	}
	for _, it := range row.Items {
		subtotal := it.Product.Price.Mul(decimal.NewFromInt(it.Quantity))
		v.Items = append(v.Items, ItemView{
			ProductID:   it.Product.ID,
			ProductName: it.Product.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.Product.Price,
			Subtotal:    subtotal,
		})
		v.Lines = append(v.Lines, fmt.Sprintf("%dx %s @ %s", it.Quantity, it.Product.Name, money.FormatBRL(subtotal)))
		v.Total = v.Total.Add(subtotal)
	}
	return v
}

// Orders returns a snapshot of the cached listing.
func (s *Service) Orders() []OrderView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotLocked(s.orders)
}

func snapshotLocked(orders []OrderView) []OrderView {
	out := make([]OrderView, len(orders))
	copy(out, orders)
	return out
}

// FilterByStatus marks visibility over the already-loaded set and returns
// the visible count. Pure client-side: no re-fetch.
func (s *Service) FilterByStatus(status string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = status
	return s.applyFilterLocked(status)
}

func (s *Service) applyFilterLocked(status string) int {
	visible := 0
	for i := range s.orders {
		show := status == FilterAll || string(s.orders[i].Status) == status
		s.orders[i].Visible = show
		if show {
			visible++
		}
	}
	return visible
}

// Stats aggregates the full cached set: per-status counts and grand
// revenue across all orders, ignoring the active filter.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Total:    len(s.orders),
		ByStatus: make(map[enum.Status]int, len(enum.Statuses)),
		Revenue:  decimal.Zero,
	}
	for _, status := range enum.Statuses {
		st.ByStatus[status] = 0
	}
	for _, o := range s.orders {
		st.ByStatus[o.Status]++
		st.Revenue = st.Revenue.Add(o.Total)
	}
	st.RevenueBRL = money.FormatBRL(st.Revenue)
	return st
}

// ChangeStatus applies a lifecycle transition. Any status may move to any
// other; a same-status change issues zero backend calls. On success the
// cached order is patched in place, on failure nothing local changes.
func (s *Service) ChangeStatus(ctx context.Context, orderID int64, newStatus enum.Status) error {
	if !newStatus.Valid() {
		return ErrInvalidStatus
	}

	s.mu.Lock()
	for _, o := range s.orders {
		if o.ID == orderID && o.Status == newStatus {
			s.mu.Unlock()
			return nil
		}
	}
	s.mu.Unlock()

	if err := s.store.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].Status = newStatus
			s.applyFilterLocked(s.filter)
			break
		}
	}
	s.mu.Unlock()

	s.publish(EventOrderStatusChanged, map[string]any{
		"order_id": orderID,
		"status":   newStatus,
	})
	return nil
}

// ConfirmationSummary exposes what the confirmer must see before a
// delete: who the order is for, how many lines, and what it is worth.
func (s *Service) ConfirmationSummary(orderID int64) (*Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == orderID {
			return &Confirmation{
				OrderID:   o.ID,
				Customer:  o.Customer,
				ItemCount: len(o.Items),
				Total:     money.FormatBRL(o.Total),
			}, nil
		}
	}
	return nil, store.ErrNotFound
}

// Delete removes an order; the backend cascade removes its items. The
// returned flag reports whether the visible listing just became empty,
// which is when the UI shows its empty state.
func (s *Service) Delete(ctx context.Context, orderID int64) (empty bool, err error) {
	if err := s.store.DeleteOrder(ctx, orderID); err != nil {
		return false, err
	}

	s.mu.Lock()
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			break
		}
	}
	visible := s.applyFilterLocked(s.filter)
	s.mu.Unlock()

	s.publish(EventOrderDeleted, map[string]any{"order_id": orderID})
	return visible == 0, nil
}

func (s *Service) publish(eventType string, payload any) {
	if s.events != nil {
		s.events.Publish(eventType, payload)
	}
}
