// Package http exposes the storefront session over a JSON API.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fjod/plantshop/internal/logging"
)

type Deps struct {
	Catalog  Catalog
	Cart     CartStore
	Sessions Sessions
	Checkout Checkout
	Orders   OrderLedger
}

// NewRouter wires the handlers. requestTimeout bounds every store call except
// order placement.
func NewRouter(deps Deps, requestTimeout time.Duration, logger *zap.Logger) http.Handler {
	logger = logging.OrNop(logger)

	catalogHandler := NewCatalogHandler(deps.Catalog, logger)
	cartHandler := NewCartHandler(deps.Cart, deps.Catalog, requestTimeout, logger)
	authHandler := NewAuthHandler(deps.Sessions, requestTimeout, logger)
	checkoutHandler := NewCheckoutHandler(deps.Checkout, logger)
	ordersHandler := NewOrdersHandler(deps.Orders, deps.Sessions, requestTimeout, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plants", catalogHandler.List)
		r.Get("/plants/{id}", catalogHandler.Get)
		r.Get("/categories", catalogHandler.Categories)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Get("/me", authHandler.Me)
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
			r.Post("/logout", authHandler.Logout)
		})

		r.Get("/checkout/summary", checkoutHandler.Summary)
		r.Post("/checkout", checkoutHandler.PlaceOrder)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Get("/{order_id}", ordersHandler.GetOrder)
		})
	})

	return r
}
