package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a Redis KV pointing at it
func setupTestRedis(t *testing.T, prefix string) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	kv := NewRedis(client, prefix)
	t.Cleanup(func() { _ = kv.Close() })

	return kv, mr
}

func TestRedis_Get_Miss(t *testing.T) {
	kv, _ := setupTestRedis(t, "")

	data, err := kv.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, data)
}

func TestRedis_SetAndGet(t *testing.T) {
	kv, mr := setupTestRedis(t, "plantshop")
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "bolt_cart", []byte(`{"items":[]}`)))

	stored, err := mr.Get("plantshop:bolt_cart")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, stored)

	data, err := kv.Get(ctx, "bolt_cart")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(data))
}

func TestRedis_Set_NoTTL(t *testing.T) {
	kv, mr := setupTestRedis(t, "")

	require.NoError(t, kv.Set(context.Background(), "bolt_users", []byte(`{}`)))
	assert.Zero(t, mr.TTL("bolt_users"))
}

func TestRedisCache_SetWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	kv := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "cache")
	t.Cleanup(func() { _ = kv.Close() })

	require.NoError(t, kv.Set(context.Background(), "bolt_users", []byte(`{}`)))

	ttl := mr.TTL("cache:bolt_users")
	assert.True(t, ttl >= 15*time.Minute, "TTL should be at least base TTL")
	assert.True(t, ttl <= 20*time.Minute, "TTL should be base + max jitter")
}

func TestRedis_Delete(t *testing.T) {
	kv, mr := setupTestRedis(t, "")
	ctx := context.Background()

	require.NoError(t, mr.Set("bolt_logged_in_user", `{"username":"alice"}`))
	assert.True(t, mr.Exists("bolt_logged_in_user"))

	require.NoError(t, kv.Delete(ctx, "bolt_logged_in_user"))
	assert.False(t, mr.Exists("bolt_logged_in_user"))

	// deleting a non-existent key should not error
	assert.NoError(t, kv.Delete(ctx, "bolt_logged_in_user"))
}

func TestRedis_ServerDown(t *testing.T) {
	kv, mr := setupTestRedis(t, "")
	mr.Close()

	_, err := kv.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "redis get failed")
}

func TestRedis_KeyFormat(t *testing.T) {
	assert.Equal(t, "p:k", (&Redis{prefix: "p"}).key("k"))
	assert.Equal(t, "k", (&Redis{}).key("k"))
}
