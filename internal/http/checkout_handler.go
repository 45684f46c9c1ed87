package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/fjod/plantshop/internal/checkout"
	"github.com/fjod/plantshop/internal/logging"
	"github.com/fjod/plantshop/internal/orders"
)

type Checkout interface {
	Summary(src checkout.Source) (checkout.Summary, error)
	PlaceOrder(ctx context.Context, src checkout.Source, form checkout.Form) (*orders.Order, error)
}

// CheckoutHandler has no request timeout: once payment starts the order
// always completes.
type CheckoutHandler struct {
	checkout Checkout
	logger   *zap.Logger
}

func NewCheckoutHandler(c Checkout, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: c, logger: logging.OrNop(logger)}
}

type PlaceOrderRequestDTO struct {
	BuyNowProductID int64         `json:"buy_now_product_id,omitempty"`
	Form            checkout.Form `json:"form"`
}

// GET /api/v1/checkout/summary
func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
	src := checkout.FromCart()
	if raw := r.URL.Query().Get("buy_now"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(w, h.logger, http.StatusBadRequest, "invalid_product_id", "buy_now must be a positive integer")
			return
		}
		src = checkout.BuyNow(id)
	}

	summary, err := h.checkout.Summary(src)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, summary)
}

// POST /api/v1/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.BuyNowProductID < 0 {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_product_id", "buy_now_product_id must be positive")
		return
	}

	order, err := h.checkout.PlaceOrder(r.Context(), checkout.BuyNow(req.BuyNowProductID), req.Form)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, order)
}
