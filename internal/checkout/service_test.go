package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/plantshop/internal/auth"
	"github.com/fjod/plantshop/internal/cart"
	"github.com/fjod/plantshop/internal/catalog"
	"github.com/fjod/plantshop/internal/orders"
	"github.com/fjod/plantshop/internal/storage"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []*orders.Order
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, o *orders.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, o)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type failingRepo struct{}

func (failingRepo) Create(context.Context, *orders.Order) error { return errors.New("db down") }
func (failingRepo) Get(context.Context, uuid.UUID) (*orders.Order, error) {
	return nil, orders.ErrOrderNotFound
}
func (failingRepo) ListByUser(context.Context, string) ([]*orders.Order, error) { return nil, nil }
func (failingRepo) Close() error                                                { return nil }

type fixture struct {
	cart      *cart.Store
	auth      *auth.Store
	repo      *orders.StorageRepository
	publisher *recordingPublisher
	svc       *Service
}

func newFixture(t *testing.T, repo orders.Repository) *fixture {
	t.Helper()
	ctx := context.Background()
	kv := storage.NewMemory()

	cat, err := catalog.New([]catalog.Plant{
		{ID: 1, Name: "Monstera", Price: 2500, Category: "Indoor", InStock: true},
		{ID: 2, Name: "Pothos", Price: 800, Category: "Indoor", InStock: true},
		{ID: 3, Name: "Fiddle Leaf", Price: 3500, Category: "Indoor", InStock: false},
	})
	require.NoError(t, err)

	cartStore, err := cart.New(ctx, kv)
	require.NoError(t, err)
	authStore, err := auth.New(ctx, kv)
	require.NoError(t, err)

	f := &fixture{
		cart:      cartStore,
		auth:      authStore,
		repo:      orders.NewStorageRepository(kv),
		publisher: &recordingPublisher{},
	}
	if repo == nil {
		repo = f.repo
	}
	settings := Settings{TaxRate: decimal.RequireFromString("0.13"), Currency: "NRS"}
	f.svc = NewService(cartStore, cat, authStore, repo, settings, WithPublisher(f.publisher))
	return f
}

func (f *fixture) add(t *testing.T, id int64, name string, price int64) {
	t.Helper()
	_, err := f.cart.AddItem(context.Background(), cart.AddItem{ProductID: id, Name: name, UnitPrice: price})
	require.NoError(t, err)
}

func TestSummary_FromCart(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, 1, "Monstera", 2500)
	f.add(t, 1, "Monstera", 2500)
	f.add(t, 2, "Pothos", 800)

	s, err := f.svc.Summary(FromCart())
	require.NoError(t, err)
	assert.Len(t, s.Items, 2)
	assert.Equal(t, int64(5800), s.Subtotal)
	assert.Equal(t, int64(754), s.Tax)
	assert.Zero(t, s.Shipping)
	assert.Equal(t, int64(6554), s.Total)
	assert.Equal(t, "NRS 6,554", s.FormattedTotal)
}

func TestSummary_BuyNowIgnoresCart(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, 1, "Monstera", 2500)

	s, err := f.svc.Summary(BuyNow(2))
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	assert.Equal(t, int64(2), s.Items[0].ProductID)
	assert.Equal(t, 1, s.Items[0].Quantity)
	assert.Equal(t, int64(800), s.Subtotal)
	assert.Equal(t, int64(104), s.Tax)
}

func TestSummary_Errors(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Summary(FromCart())
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.svc.Summary(BuyNow(3))
	assert.ErrorIs(t, err, catalog.ErrOutOfStock)

	_, err = f.svc.Summary(BuyNow(99))
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestPlaceOrder_FromCartClearsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.add(t, 1, "Monstera", 2500)
	f.add(t, 2, "Pothos", 800)

	order, err := f.svc.PlaceOrder(ctx, FromCart(), validForm())
	require.NoError(t, err)

	assert.Equal(t, orders.StatusConfirmed, order.Status)
	assert.Equal(t, orders.Guest, order.Username)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, int64(3300+429), order.Total)
	assert.True(t, f.cart.State().Empty())

	stored, err := f.repo.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Total, stored.Total)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, order.ID, f.publisher.published[0].ID)
}

func TestPlaceOrder_BuyNowKeepsCart(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, 1, "Monstera", 2500)

	order, err := f.svc.PlaceOrder(context.Background(), BuyNow(2), validForm())
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(2), order.Items[0].ProductID)
	assert.Equal(t, 1, f.cart.State().ItemCount)
}

func TestPlaceOrder_RecordsUsername(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	_, err := f.auth.Register(ctx, "alice", "Abcdef1!")
	require.NoError(t, err)
	f.add(t, 1, "Monstera", 2500)

	order, err := f.svc.PlaceOrder(ctx, FromCart(), validForm())
	require.NoError(t, err)
	assert.Equal(t, "alice", order.Username)

	list, err := f.repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPlaceOrder_RejectsBeforeProcessing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.PlaceOrder(ctx, FromCart(), validForm())
	assert.ErrorIs(t, err, ErrEmptyCart)

	f.add(t, 1, "Monstera", 2500)
	form := validForm()
	form.CVV = ""
	_, err = f.svc.PlaceOrder(ctx, FromCart(), form)
	assert.ErrorIs(t, err, ErrMissingField)

	assert.Equal(t, 1, f.cart.State().ItemCount, "failed checkout keeps the cart")
	assert.Empty(t, f.publisher.published)
}

func TestPlaceOrder_LedgerAndPublishFailuresDoNotFailOrder(t *testing.T) {
	f := newFixture(t, failingRepo{})
	f.publisher.err = errors.New("broker down")
	f.add(t, 1, "Monstera", 2500)

	order, err := f.svc.PlaceOrder(context.Background(), FromCart(), validForm())
	require.NoError(t, err)
	assert.NotNil(t, order)
	assert.True(t, f.cart.State().Empty())
}

func TestPlaceOrder_CompletesAfterCancel(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.settings.ProcessingDelay = 50 * time.Millisecond
	f.add(t, 1, "Monstera", 2500)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	order, err := f.svc.PlaceOrder(ctx, FromCart(), validForm())
	require.NoError(t, err)
	assert.True(t, f.cart.State().Empty())

	_, err = f.repo.Get(context.Background(), order.ID)
	assert.NoError(t, err)
}
