package storage

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cached serves reads from front and falls back to back, the source of truth.
// Writes go to back and invalidate front. Each key carries a generation that
// invalidation bumps; a fill read under an older generation never stays in front.
type Cached struct {
	front  KV
	back   KV
	logger *zap.Logger
	sfg    singleflight.Group // prevents cache stampede

	mu   sync.Mutex
	gens map[string]uint64
}

func NewCached(front, back KV, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{
		front:  front,
		back:   back,
		logger: logger,
		gens:   make(map[string]uint64),
	}
}

func (c *Cached) Get(ctx context.Context, key string) ([]byte, error) {
	gen := c.generation(key)
	v, err, _ := c.sfg.Do(key+"@"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		data, err := c.front.Get(ctx, key)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}

		data, err = c.back.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		c.fill(ctx, key, data, gen)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cached) Set(ctx context.Context, key string, value []byte) error {
	if err := c.back.Set(ctx, key, value); err != nil {
		return err
	}
	c.invalidate(key)
	return nil
}

func (c *Cached) Delete(ctx context.Context, key string) error {
	if err := c.back.Delete(ctx, key); err != nil {
		return err
	}
	c.invalidate(key)
	return nil
}

func (c *Cached) Close() error {
	return errors.Join(c.front.Close(), c.back.Close())
}

// fill stores data read under gen in front. A write that lands while the fill
// is in flight bumps the generation, and the filled value is removed again.
func (c *Cached) fill(ctx context.Context, key string, data []byte, gen uint64) {
	if c.generation(key) != gen {
		return
	}
	if err := c.front.Set(ctx, key, data); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return
	}
	if c.generation(key) != gen {
		c.logger.Debug("dropping stale cache fill", zap.String("key", key))
		c.invalidate(key)
	}
}

func (c *Cached) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

func (c *Cached) invalidate(key string) {
	c.mu.Lock()
	c.gens[key]++
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.front.Delete(ctx, key); err != nil {
		c.logger.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}
