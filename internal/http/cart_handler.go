package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/plantshop/internal/cart"
	"github.com/fjod/plantshop/internal/logging"
)

type CartStore interface {
	State() cart.State
	AddItem(ctx context.Context, item cart.AddItem) (cart.State, error)
	UpdateQuantity(ctx context.Context, productID int64, quantity int) (cart.State, error)
	RemoveItem(ctx context.Context, productID int64) (cart.State, error)
	Clear(ctx context.Context) (cart.State, error)
}

type CartHandler struct {
	cart    CartStore
	catalog Catalog
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(store CartStore, c Catalog, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cart:    store,
		catalog: c,
		timeout: timeout,
		logger:  logging.OrNop(logger),
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, h.cart.State())
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	line, err := h.catalog.LineFor(req.ProductID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	state, err := h.cart.AddItem(ctx, line)
	h.respondCart(w, http.StatusCreated, state, err)
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathID(w, h.logger, r, "product_id")
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	state, err := h.cart.UpdateQuantity(ctx, productID, req.Quantity)
	h.respondCart(w, http.StatusOK, state, err)
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathID(w, h.logger, r, "product_id")
	if !ok {
		return
	}

	state, err := h.cart.RemoveItem(ctx, productID)
	h.respondCart(w, http.StatusOK, state, err)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	state, err := h.cart.Clear(ctx)
	h.respondCart(w, http.StatusOK, state, err)
}

// respondCart answers with the committed cart. A persistence error does not
// undo the command, so it is logged rather than reported as a failure.
func (h *CartHandler) respondCart(w http.ResponseWriter, status int, state cart.State, err error) {
	if errors.Is(err, cart.ErrClosed) {
		respondError(w, h.logger, http.StatusServiceUnavailable, "session_closed", "cart is closed")
		return
	}
	if err != nil {
		h.logger.Error("cart changed but was not saved", zap.Error(err))
	}
	respondJSON(w, h.logger, status, state)
}
