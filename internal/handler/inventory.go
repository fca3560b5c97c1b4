package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"facet-inventory-api/internal/cache"
	"facet-inventory-api/internal/inventory"
	"facet-inventory-api/internal/model"

	"facet-inventory-api/pkg/apierror"
	"facet-inventory-api/pkg/response"
)

const stockListCacheKey = "stock:all"

// StockHandler serves stock, reservation and alert endpoints on top of
// the inventory manager. The full-list read goes through a short-lived
// response cache that is cleared whenever the manager reports a change.
type StockHandler struct {
	manager   *inventory.Manager
	respCache cache.Cache
	cacheTTL  time.Duration
}

// NewStockHandler creates a stock handler. When respCache is non-nil
// the handler registers a bus listener that invalidates the cached
// list on every mutating event.
func NewStockHandler(manager *inventory.Manager, respCache cache.Cache, cacheTTL time.Duration) *StockHandler {
	h := &StockHandler{
		manager:   manager,
		respCache: respCache,
		cacheTTL:  cacheTTL,
	}

	if respCache != nil {
		manager.Events().Subscribe(func(ev inventory.Event) {
			_ = respCache.Delete(context.Background(), stockListCacheKey)
		},
			inventory.EventInventoryLoaded,
			inventory.EventInventoryUpdated,
			inventory.EventStockReserved,
			inventory.EventReservationReleased,
		)
	}

	return h
}

// GetStock handles GET /api/v1/stock
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	if h.respCache == nil {
		response.OK(w, h.manager.GetAllInventory())
		return
	}

	data, err := h.respCache.GetOrSet(r.Context(), stockListCacheKey, h.cacheTTL, func() ([]byte, error) {
		return json.Marshal(h.manager.GetAllInventory())
	})
	if err != nil {
		response.OK(w, h.manager.GetAllInventory())
		return
	}

	response.OK(w, json.RawMessage(data))
}

// GetProductStock handles GET /api/v1/stock/{product_id}
func (h *StockHandler) GetProductStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		response.Error(w, apierror.BadRequest("product_id is required"))
		return
	}

	snap := h.manager.GetInventory(productID)
	if snap == nil {
		response.Error(w, apierror.ProductNotFound(""))
		return
	}

	response.OK(w, snap)
}

// SyncStock handles POST /api/v1/stock/sync - batch snapshot ingest
// from the warehouse feed.
func (h *StockHandler) SyncStock(w http.ResponseWriter, r *http.Request) {
	var updates []model.SnapshotUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		response.Error(w, apierror.BadRequest("Invalid request body: expected a JSON array of snapshots"))
		return
	}
	if len(updates) == 0 {
		response.Error(w, apierror.BadRequest("Snapshot batch is empty"))
		return
	}

	applied := h.manager.IngestBatch(updates)

	response.OK(w, map[string]interface{}{
		"applied": applied,
	})
}

// SyncProductStock handles POST /api/v1/stock/{product_id}/sync - a
// single incremental feed update.
func (h *StockHandler) SyncProductStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		response.Error(w, apierror.BadRequest("product_id is required"))
		return
	}

	var body struct {
		Quantity int  `json:"quantity"`
		Reserved *int `json:"reserved,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, apierror.BadRequest("Invalid request body"))
		return
	}
	if body.Quantity < 0 {
		response.Error(w, apierror.BadRequest("Quantity cannot be negative"))
		return
	}

	snap := h.manager.IngestUpdate(model.SnapshotUpdate{
		ProductID: productID,
		Quantity:  body.Quantity,
		Reserved:  body.Reserved,
	})

	response.OK(w, snap)
}

// ReserveRequest is the body for POST /api/v1/reservations.
type ReserveRequest struct {
	ProductID string         `json:"product_id"`
	Quantity  int            `json:"quantity"`
	SessionID string         `json:"session_id"`
	UserID    string         `json:"user_id,omitempty"`
	Type      model.HoldType `json:"type,omitempty"`
}

// Reserve handles POST /api/v1/reservations
func (h *StockHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("Invalid request body"))
		return
	}
	if req.ProductID == "" {
		response.Error(w, apierror.BadRequest("product_id is required"))
		return
	}
	if req.SessionID == "" {
		response.Error(w, apierror.BadRequest("session_id is required"))
		return
	}
	if req.Type != "" && req.Type != model.HoldCart && req.Type != model.HoldCheckout {
		response.Error(w, apierror.BadRequest("type must be 'cart' or 'checkout'"))
		return
	}

	res, err := h.manager.Reserve(req.ProductID, req.Quantity, req.SessionID, req.Type, req.UserID)
	if err != nil {
		response.Error(w, mapInventoryError(err))
		return
	}

	response.Created(w, res)
}

// Release handles DELETE /api/v1/reservations/{reservation_id}
func (h *StockHandler) Release(w http.ResponseWriter, r *http.Request) {
	reservationID := chi.URLParam(r, "reservation_id")
	if reservationID == "" {
		response.Error(w, apierror.BadRequest("reservation_id is required"))
		return
	}

	if err := h.manager.Release(reservationID); err != nil {
		response.Error(w, mapInventoryError(err))
		return
	}

	response.NoContent(w)
}

// GetAlerts handles GET /api/v1/alerts
func (h *StockHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.manager.GetAlerts())
}

// DismissAlert handles POST /api/v1/alerts/{alert_id}/dismiss
func (h *StockHandler) DismissAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alert_id")
	if alertID == "" {
		response.Error(w, apierror.BadRequest("alert_id is required"))
		return
	}

	h.manager.DismissAlert(alertID)
	response.NoContent(w)
}

// mapInventoryError translates manager sentinel errors into API errors.
func mapInventoryError(err error) error {
	switch {
	case errors.Is(err, inventory.ErrInvalidQuantity):
		return apierror.InvalidQuantity("")
	case errors.Is(err, inventory.ErrProductNotFound):
		return apierror.ProductNotFound("")
	case errors.Is(err, inventory.ErrReservationNotFound):
		return apierror.ReservationNotFound("")
	case errors.Is(err, inventory.ErrInsufficientStock):
		return apierror.InsufficientStock("")
	default:
		return err
	}
}
