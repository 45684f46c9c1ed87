package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_PassesThrough(t *testing.T) {
	b := NewBreaker(NewMemory(), DefaultBreakerSettings("test"), nil)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k", []byte("v")))
	data, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(data))
	require.NoError(t, b.Delete(ctx, "k"))
}

func TestBreaker_NotFoundDoesNotTrip(t *testing.T) {
	s := DefaultBreakerSettings("test")
	s.MaxFailures = 2
	b := NewBreaker(NewMemory(), s, nil)

	for i := 0; i < 5; i++ {
		_, err := b.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	s := DefaultBreakerSettings("test")
	s.MaxFailures = 3
	s.OpenTimeout = time.Minute
	b := NewBreaker(failingKV{err: errors.New("connection refused")}, s, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := b.Set(ctx, "k", []byte("v"))
		require.ErrorContains(t, err, "connection refused")
		assert.NotErrorIs(t, err, ErrUnavailable)
	}

	assert.Equal(t, "open", b.State())
	_, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)
}
