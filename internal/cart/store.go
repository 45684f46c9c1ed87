package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/fjod/plantshop/internal/logging"
	"github.com/fjod/plantshop/internal/storage"
)

// StorageKey is where the cart is mirrored unless WithKey overrides it.
const StorageKey = "bolt_cart"

var ErrClosed = errors.New("cart store is closed")

// Listener is called with the committed state after each command.
type Listener func(State)

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNop(l) }
}

func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// Store owns one cart for the lifetime of a session. Commands are serialized,
// so each one is atomic with respect to the others.
type Store struct {
	mu        sync.Mutex
	kv        storage.KV
	key       string
	logger    *zap.Logger
	state     State
	listeners []subscription
	nextID    int
	closed    bool
}

// New creates a store hydrated from kv, or empty when nothing was saved.
// A corrupt saved cart is discarded.
func New(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:     kv,
		key:    StorageKey,
		logger: zap.NewNop(),
		state:  State{Items: []LineItem{}},
	}
	for _, opt := range opts {
		opt(s)
	}

	saved, ok, err := storage.GetJSON[State](ctx, kv, s.key)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		s.logger.Warn("discarding corrupt saved cart", zap.String("key", s.key), zap.Error(err))
	case err != nil:
		return nil, fmt.Errorf("failed to load cart: %w", err)
	case ok:
		s.state = sanitize(saved, s.logger)
	}

	s.logger.Debug("cart store ready",
		zap.Int("lines", len(s.state.Items)),
		zap.Int("item_count", s.state.ItemCount))
	return s, nil
}

// sanitize drops lines that could not have been produced by the reducer and
// recomputes the aggregates rather than trusting the saved ones.
func sanitize(saved State, logger *zap.Logger) State {
	out := State{Items: make([]LineItem, 0, len(saved.Items))}
	seen := make(map[int64]bool, len(saved.Items))
	for _, item := range saved.Items {
		if item.Quantity < 1 || seen[item.ProductID] {
			logger.Warn("dropping invalid saved cart line",
				zap.Int64("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity))
			continue
		}
		seen[item.ProductID] = true
		out.Items = append(out.Items, item)
	}
	return out.recompute()
}

// State returns a copy of the current cart.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch applies cmd, persists the result and notifies listeners.
// The new state is committed even if persisting it fails; the error then
// means the durable copy is behind.
func (s *Store) Dispatch(ctx context.Context, cmd Command) (State, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return State{}, ErrClosed
	}

	s.state = Reduce(s.state, cmd)
	next := s.state.clone()
	errPersist := storage.SetJSON(ctx, s.kv, s.key, next)
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	s.logger.Debug("cart command applied",
		zap.String("command", cmd.Type()),
		zap.Int("item_count", next.ItemCount),
		zap.Int64("total", next.Total))
	if errPersist != nil {
		s.logger.Error("failed to persist cart", zap.String("key", s.key), zap.Error(errPersist))
		errPersist = fmt.Errorf("failed to persist cart: %w", errPersist)
	}

	for _, l := range listeners {
		l(next.clone())
	}
	return next, errPersist
}

func (s *Store) AddItem(ctx context.Context, item AddItem) (State, error) {
	return s.Dispatch(ctx, item)
}

func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) (State, error) {
	return s.Dispatch(ctx, UpdateQuantity{ProductID: productID, Quantity: quantity})
}

func (s *Store) RemoveItem(ctx context.Context, productID int64) (State, error) {
	return s.Dispatch(ctx, RemoveItem{ProductID: productID})
}

func (s *Store) Clear(ctx context.Context) (State, error) {
	return s.Dispatch(ctx, ClearCart{})
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, fn: l})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool { return sub.id == id })
	}
}

// Close forgets listeners and rejects further commands. Saved state is kept.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.listeners = nil
	return nil
}

type subscription struct {
	id int
	fn Listener
}

func (s *Store) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, sub := range s.listeners {
		out = append(out, sub.fn)
	}
	return out
}
