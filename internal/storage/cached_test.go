package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// countingKV wraps Memory and counts Get calls, optionally failing them.
type countingKV struct {
	*Memory
	gets atomic.Int32
	mu   sync.RWMutex
	err  error
}

func newCountingKV() *countingKV {
	return &countingKV{Memory: NewMemory()}
}

func (c *countingKV) Get(ctx context.Context, key string) ([]byte, error) {
	c.gets.Add(1)
	c.mu.RLock()
	err := c.err
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return c.Memory.Get(ctx, key)
}

func (c *countingKV) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func TestCached_MissFillsFront(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	front, back := newCountingKV(), newCountingKV()
	ctx := context.Background()
	require.NoError(t, back.Memory.Set(ctx, "bolt_cart", []byte("v")))

	sut := NewCached(front, back, nil)
	data, err := sut.Get(ctx, "bolt_cart")
	require.NoError(t, err)
	assert.Equal(t, "v", string(data))

	cached, err := front.Memory.Get(ctx, "bolt_cart")
	require.NoError(t, err)
	assert.Equal(t, "v", string(cached))

	// second read is a front hit
	_, err = sut.Get(ctx, "bolt_cart")
	require.NoError(t, err)
	assert.Equal(t, int32(1), back.gets.Load())
}

func TestCached_NotFoundPropagates(t *testing.T) {
	sut := NewCached(newCountingKV(), newCountingKV(), nil)

	_, err := sut.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCached_FrontErrorFallsBack(t *testing.T) {
	front, back := newCountingKV(), newCountingKV()
	ctx := context.Background()
	require.NoError(t, back.Memory.Set(ctx, "k", []byte("v")))
	front.setErr(errors.New("redis down"))

	sut := NewCached(front, back, nil)
	data, err := sut.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(data))
}

func TestCached_SetInvalidatesFront(t *testing.T) {
	front, back := newCountingKV(), newCountingKV()
	ctx := context.Background()
	require.NoError(t, front.Memory.Set(ctx, "k", []byte("stale")))

	sut := NewCached(front, back, nil)
	require.NoError(t, sut.Set(ctx, "k", []byte("fresh")))

	_, err := front.Memory.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	data, err := sut.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestCached_DeleteInvalidatesFront(t *testing.T) {
	front, back := newCountingKV(), newCountingKV()
	ctx := context.Background()
	require.NoError(t, front.Memory.Set(ctx, "k", []byte("v")))
	require.NoError(t, back.Memory.Set(ctx, "k", []byte("v")))

	sut := NewCached(front, back, nil)
	require.NoError(t, sut.Delete(ctx, "k"))

	_, err := sut.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCached_BackErrorOnSet(t *testing.T) {
	front := newCountingKV()
	ctx := context.Background()
	require.NoError(t, front.Memory.Set(ctx, "k", []byte("v")))

	sut := NewCached(front, failingKV{err: errors.New("database error")}, nil)
	err := sut.Set(ctx, "k", []byte("new"))
	require.ErrorContains(t, err, "database error")

	// front untouched when the write did not land
	data, _ := front.Memory.Get(ctx, "k")
	assert.Equal(t, "v", string(data))
}

// gatedKV wraps Memory. When armed, the next Get reads its value and then
// waits for release; the next Set waits for release before writing.
type gatedKV struct {
	*Memory
	getArmed atomic.Bool
	setArmed atomic.Bool
	entered  chan struct{}
	release  chan struct{}
}

func newGatedKV() *gatedKV {
	return &gatedKV{
		Memory:  NewMemory(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedKV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := g.Memory.Get(ctx, key)
	if g.getArmed.CompareAndSwap(true, false) {
		g.entered <- struct{}{}
		<-g.release
	}
	return data, err
}

func (g *gatedKV) Set(ctx context.Context, key string, value []byte) error {
	if g.setArmed.CompareAndSwap(true, false) {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.Memory.Set(ctx, key, value)
}

type readResult struct {
	data []byte
	err  error
}

func TestCached_WriteDuringBackReadIsNotCachedStale(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	front, back := NewMemory(), newGatedKV()
	ctx := context.Background()
	require.NoError(t, back.Memory.Set(ctx, "k", []byte("old")))
	sut := NewCached(front, back, nil)

	back.getArmed.Store(true)
	done := make(chan readResult, 1)
	go func() {
		data, err := sut.Get(ctx, "k")
		done <- readResult{data, err}
	}()

	<-back.entered
	require.NoError(t, sut.Set(ctx, "k", []byte("new")))
	close(back.release)

	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, "old", string(first.data))

	_, err := front.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	data, err := sut.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestCached_WriteDuringFillRemovesFill(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	front, back := newGatedKV(), NewMemory()
	ctx := context.Background()
	require.NoError(t, back.Set(ctx, "k", []byte("old")))
	sut := NewCached(front, back, nil)

	front.setArmed.Store(true)
	done := make(chan readResult, 1)
	go func() {
		data, err := sut.Get(ctx, "k")
		done <- readResult{data, err}
	}()

	<-front.entered
	require.NoError(t, sut.Set(ctx, "k", []byte("new")))
	close(front.release)

	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, "old", string(first.data))

	_, err := front.Memory.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	data, err := sut.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

type failingKV struct {
	err error
}

func (f failingKV) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingKV) Set(context.Context, string, []byte) error   { return f.err }
func (f failingKV) Delete(context.Context, string) error        { return f.err }
func (f failingKV) Close() error                                { return nil }
