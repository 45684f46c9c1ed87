// Package storage is the persistence shim the stores mirror their state into.
// Values are opaque byte blobs, JSON in practice, addressed by a string key.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("key not found")
	ErrUnavailable = errors.New("storage unavailable")
	ErrCorrupt     = errors.New("stored value is corrupt")
)

// KV defines the durable key-value operations the stores depend on.
// Consumers define this interface, backends implement it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON loads key into a T. The bool is false when the key is absent.
func GetJSON[T any](ctx context.Context, kv KV, key string) (T, bool, error) {
	var v T
	data, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("%w: unmarshal %s failed: %v", ErrCorrupt, key, err)
	}
	return v, true, nil
}

func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	return kv.Set(ctx, key, data)
}
