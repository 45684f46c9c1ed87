package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fjod/plantshop/internal/logging"
	"github.com/fjod/plantshop/internal/orders"
)

type OrderLedger interface {
	Get(ctx context.Context, id uuid.UUID) (*orders.Order, error)
	ListByUser(ctx context.Context, username string) ([]*orders.Order, error)
}

// OrdersHandler shows a logged-in user their own order history.
type OrdersHandler struct {
	ledger   OrderLedger
	sessions Sessions
	timeout  time.Duration
	logger   *zap.Logger
}

func NewOrdersHandler(ledger OrderLedger, sessions Sessions, timeout time.Duration, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{ledger: ledger, sessions: sessions, timeout: timeout, logger: logging.OrNop(logger)}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := h.sessions.Current()
	if !ok {
		respondError(w, h.logger, http.StatusUnauthorized, "unauthorized", "log in to see your orders")
		return
	}

	list, err := h.ledger.ListByUser(ctx, id.Username)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if list == nil {
		list = []*orders.Order{}
	}
	respondJSON(w, h.logger, http.StatusOK, list)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := h.sessions.Current()
	if !ok {
		respondError(w, h.logger, http.StatusUnauthorized, "unauthorized", "log in to see your orders")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	order, err := h.ledger.Get(ctx, orderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	// other users' orders are reported as missing
	if order.Username != id.Username {
		handleError(w, h.logger, orders.ErrOrderNotFound)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, order)
}
