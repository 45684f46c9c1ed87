// Package checkout turns a cart, or a single buy-now product, into a
// confirmed order.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/plantshop/internal/auth"
	"github.com/fjod/plantshop/internal/cart"
	"github.com/fjod/plantshop/internal/logging"
	"github.com/fjod/plantshop/internal/money"
	"github.com/fjod/plantshop/internal/orders"
)

// Source selects what is being bought. The zero value checks out the cart.
type Source struct {
	BuyNowProductID int64
}

func FromCart() Source { return Source{} }

func BuyNow(productID int64) Source { return Source{BuyNowProductID: productID} }

func (s Source) IsBuyNow() bool { return s.BuyNowProductID != 0 }

type Summary struct {
	Items          []cart.LineItem `json:"items"`
	Subtotal       int64           `json:"subtotal"`
	Tax            int64           `json:"tax"`
	Shipping       int64           `json:"shipping"`
	Total          int64           `json:"total"`
	Currency       string          `json:"currency"`
	FormattedTotal string          `json:"formattedTotal"`
}

type CartStore interface {
	State() cart.State
	Clear(ctx context.Context) (cart.State, error)
}

type Catalog interface {
	LineFor(id int64) (cart.AddItem, error)
}

type Sessions interface {
	Current() (auth.Identity, bool)
}

type Settings struct {
	TaxRate         decimal.Decimal
	ProcessingDelay time.Duration
	Currency        string
}

func DefaultSettings() Settings {
	return Settings{
		TaxRate:         money.DefaultTaxRate,
		ProcessingDelay: 2 * time.Second,
		Currency:        "NRS",
	}
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(l) }
}

func WithPublisher(p orders.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

type Service struct {
	cart      CartStore
	catalog   Catalog
	sessions  Sessions
	repo      orders.Repository
	publisher orders.Publisher
	settings  Settings
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(cartStore CartStore, cat Catalog, sessions Sessions, repo orders.Repository, settings Settings, opts ...Option) *Service {
	s := &Service{
		cart:      cartStore,
		catalog:   cat,
		sessions:  sessions,
		repo:      repo,
		publisher: orders.NopPublisher{},
		settings:  settings,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary prices the items src refers to. A buy-now product must exist and be in stock.
func (s *Service) Summary(src Source) (Summary, error) {
	items, err := s.items(src)
	if err != nil {
		return Summary{}, err
	}
	subtotal := money.Subtotal(items)
	tax := money.Tax(subtotal, s.settings.TaxRate)
	total := subtotal + tax + money.Shipping
	return Summary{
		Items:          items,
		Subtotal:       subtotal,
		Tax:            tax,
		Shipping:       money.Shipping,
		Total:          total,
		Currency:       s.settings.Currency,
		FormattedTotal: money.Format(total, s.settings.Currency),
	}, nil
}

// PlaceOrder validates the form, simulates payment and confirms the order.
// Once payment has started the order always completes: cancelling ctx does not
// interrupt it, and failures to record or announce the order are only logged.
// The cart is cleared only when the order was placed from it.
func (s *Service) PlaceOrder(ctx context.Context, src Source, form Form) (*orders.Order, error) {
	summary, err := s.Summary(src)
	if err != nil {
		return nil, err
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	s.logger.Info("processing payment",
		zap.Bool("buy_now", src.IsBuyNow()),
		zap.Int64("total", summary.Total))
	if s.settings.ProcessingDelay > 0 {
		time.Sleep(s.settings.ProcessingDelay)
	}

	order := s.newOrder(summary, form)

	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.Error("failed to record order", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
	if err := s.publisher.Publish(ctx, order); err != nil {
		s.logger.Error("failed to publish order", zap.String("order_id", order.ID.String()), zap.Error(err))
	}

	if !src.IsBuyNow() {
		if _, err := s.cart.Clear(ctx); err != nil {
			s.logger.Error("failed to clear cart after order", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("order confirmed",
		zap.String("order_id", order.ID.String()),
		zap.String("username", order.Username),
		zap.Int64("total", order.Total))
	return order, nil
}

func (s *Service) items(src Source) ([]cart.LineItem, error) {
	if src.IsBuyNow() {
		line, err := s.catalog.LineFor(src.BuyNowProductID)
		if err != nil {
			return nil, fmt.Errorf("buy now: %w", err)
		}
		return []cart.LineItem{{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			ImageRef:  line.ImageRef,
			Quantity:  1,
		}}, nil
	}

	items := s.cart.State().Items
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	return items, nil
}

func (s *Service) newOrder(summary Summary, form Form) *orders.Order {
	username := orders.Guest
	if id, ok := s.sessions.Current(); ok {
		username = id.Username
	}

	items := make([]orders.Item, 0, len(summary.Items))
	for _, l := range summary.Items {
		items = append(items, orders.Item{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	return &orders.Order{
		ID:        uuid.New(),
		Username:  username,
		Items:     items,
		Customer:  form.customer(),
		Subtotal:  summary.Subtotal,
		Tax:       summary.Tax,
		Shipping:  summary.Shipping,
		Total:     summary.Total,
		Currency:  summary.Currency,
		Status:    orders.StatusConfirmed,
		CreatedAt: s.now().UTC(),
	}
}
