package orders

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/fjod/plantshop/internal/storage"
)

// LedgerKey is the storage key holding every order placed through a KV backend.
const LedgerKey = "orders"

// StorageRepository keeps the order ledger as one JSON list in a storage.KV.
// It suits the single-session deployments; use PostgresRepository when
// several processes take orders.
type StorageRepository struct {
	mu sync.Mutex
	kv storage.KV
}

func NewStorageRepository(kv storage.KV) *StorageRepository {
	return &StorageRepository{kv: kv}
}

func (r *StorageRepository) Create(ctx context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, err := r.load(ctx)
	if err != nil {
		return err
	}
	for _, o := range ledger {
		if o.ID == order.ID {
			return ErrDuplicateOrder
		}
	}
	ledger = append(ledger, order)
	if err := storage.SetJSON(ctx, r.kv, LedgerKey, ledger); err != nil {
		return fmt.Errorf("save order ledger: %w", err)
	}
	return nil
}

func (r *StorageRepository) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range ledger {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (r *StorageRepository) ListByUser(ctx context.Context, username string) ([]*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Order
	for _, o := range ledger {
		if o.Username == username {
			out = append(out, o)
		}
	}
	// ledger is append-only, so reversing gives newest first
	slices.Reverse(out)
	return out, nil
}

// Close is a no-op; the KV belongs to the caller.
func (r *StorageRepository) Close() error {
	return nil
}

func (r *StorageRepository) load(ctx context.Context) ([]*Order, error) {
	ledger, _, err := storage.GetJSON[[]*Order](ctx, r.kv, LedgerKey)
	if err != nil {
		return nil, fmt.Errorf("load order ledger: %w", err)
	}
	return ledger, nil
}
