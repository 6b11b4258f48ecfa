package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/balcao-pos/api/internal/backend"
	"github.com/balcao-pos/api/internal/enum"
	"github.com/balcao-pos/api/internal/order"
	"github.com/balcao-pos/api/internal/store"
	"github.com/go-chi/chi/v5"
)

// OrderService defines the workflow methods needed by order handlers.
// Satisfied by *order.Service; narrow interface for testability.
type OrderService interface {
	Submit(ctx context.Context, customer string, status enum.Status, items []order.DraftItem) (*order.SubmitResult, error)
	LoadAll(ctx context.Context) ([]order.OrderView, error)
	FilterByStatus(status string) int
	Orders() []order.OrderView
	Stats() order.Stats
	ChangeStatus(ctx context.Context, orderID int64, newStatus enum.Status) error
	ConfirmationSummary(orderID int64) (*order.Confirmation, error)
	Delete(ctx context.Context, orderID int64) (bool, error)
}

// OrderHandler handles order endpoints. Incoming draft payloads pass
// through a Draft so quantities get the same clamping the form applies.
type OrderHandler struct {
	svc OrderService
	cat order.Catalog
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderService, cat order.Catalog) *OrderHandler {
	return &OrderHandler{svc: svc, cat: cat}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}/confirmation", h.Confirmation)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createOrderRequest struct {
	Customer string                   `json:"customer"`
	Status   string                   `json:"status"`
	Items    []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type createOrderResponse struct {
	ID       int64     `json:"id"`
	Customer string    `json:"customer"`
	Status   string    `json:"status"`
	Date     time.Time `json:"date"`
	Total    string    `json:"total"`
}

type orderItemResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type orderResponse struct {
	ID       int64               `json:"id"`
	Customer string              `json:"customer"`
	Status   string              `json:"status"`
	Date     time.Time           `json:"date"`
	Items    []orderItemResponse `json:"items"`
	Lines    []string            `json:"lines"`
	Total    string              `json:"total"`
	Visible  bool                `json:"visible"`
}

type statsResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	Revenue  string         `json:"revenue"`
}

// orderListResponse carries the listing plus its fleet-wide aggregates.
type orderListResponse struct {
	Orders       []orderResponse `json:"orders"`
	VisibleCount int             `json:"visible_count"`
	Empty        bool            `json:"empty"`
	Stats        statsResponse   `json:"stats"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func toOrderResponse(v order.OrderView) orderResponse {
	resp := orderResponse{
		ID:       v.ID,
		Customer: v.Customer,
		Status:   string(v.Status),
		Date:     v.Date,
		Lines:    v.Lines,
		Total:    v.Total.StringFixed(2),
		Visible:  v.Visible,
	}
	resp.Items = make([]orderItemResponse, len(v.Items))
	for i, it := range v.Items {
		resp.Items[i] = orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
			Subtotal:    it.Subtotal.StringFixed(2),
		}
	}
	return resp
}

func toStatsResponse(st order.Stats) statsResponse {
	resp := statsResponse{
		Total:    st.Total,
		ByStatus: make(map[string]int, len(st.ByStatus)),
		Revenue:  st.Revenue.StringFixed(2),
	}
	for status, n := range st.ByStatus {
		resp.ByStatus[string(status)] = n
	}
	return resp
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	status, err := enum.ParseStatus(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	items, err := h.collectItems(req.Items)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.svc.Submit(r.Context(), req.Customer, status, items)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		ID:       result.Order.ID,
		Customer: result.Order.Customer,
		Status:   string(result.Order.Status),
		Date:     result.Order.Date,
		Total:    result.Total.StringFixed(2),
	})
}

// collectItems replays the request rows through a Draft so the payload
// gets the form's clamping and completeness rules.
func (h *OrderHandler) collectItems(reqItems []createOrderItemRequest) ([]order.DraftItem, error) {
	if len(reqItems) == 0 {
		return nil, order.ErrEmptyItems
	}

	draft := order.NewDraft(h.cat)
	for _, it := range reqItems {
		i, err := draft.AddRow()
		if err != nil {
			return nil, err
		}
		if err := draft.SelectProduct(i, it.ProductID); err != nil {
			return nil, err
		}
		if _, err := draft.SetQuantity(i, it.Quantity); err != nil {
			return nil, err
		}
	}
	return draft.CollectItems()
}

func (h *OrderHandler) writeSubmitError(w http.ResponseWriter, err error) {
	if order.IsValidationError(err) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if errors.Is(err, order.ErrSubmissionInFlight) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	var pe *order.PersistenceError
	if errors.As(err, &pe) {
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": backend.FriendlyMessage(pe.Err),
			"stage": pe.Stage,
		})
		return
	}
	log.Printf("ERROR: create order: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// List handles GET /orders. Reloads the listing from the backend, then
// applies the optional ?status= filter purely over the cache.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.LoadAll(r.Context()); err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": backend.FriendlyMessage(err)})
		return
	}

	filter := order.FilterAll
	if s := r.URL.Query().Get("status"); s != "" {
		if s != order.FilterAll {
			if _, err := enum.ParseStatus(s); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
				return
			}
		}
		filter = s
	}
	visible := h.svc.FilterByStatus(filter)
	views := h.svc.Orders()

	resp := orderListResponse{
		Orders:       make([]orderResponse, len(views)),
		VisibleCount: visible,
		Empty:        len(views) == 0,
		Stats:        toStatsResponse(h.svc.Stats()),
	}
	for i, v := range views {
		resp.Orders[i] = toOrderResponse(v)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Confirmation handles GET /orders/{id}/confirmation: the summary shown
// to the operator before a delete is allowed to proceed.
func (h *OrderHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	summary, err := h.svc.ConfirmationSummary(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: order confirmation: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	status, err := enum.ParseStatus(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	if err := h.svc.ChangeStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": backend.FriendlyMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// Delete handles DELETE /orders/{id}. The response reports whether the
// visible listing just became empty so the UI can show its empty state.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	empty, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: delete order: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": backend.FriendlyMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"empty": empty})
}
