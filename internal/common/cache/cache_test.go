package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformredis "erp-telegram-bot/internal/platform/redis"
)

type contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func setupCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	return setupCacheWithLogger(t, zerolog.Nop())
}

func setupCacheWithLogger(t *testing.T, logger zerolog.Logger) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(platformredis.Wrap(client), "test", logger), mr
}

func TestCacheService_GetMiss(t *testing.T) {
	c, _ := setupCache(t)

	var got contact
	err := c.Get(context.Background(), "missing", &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCacheService_SetGet(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "contact", contact{Name: "Ali", Phone: "+998"}, time.Minute))
	assert.True(t, mr.Exists("test:contact"))

	var got contact
	require.NoError(t, c.Get(ctx, "contact", &got))
	assert.Equal(t, "Ali", got.Name)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "contact", &got), ErrMiss)
}

func TestCacheService_GetOrSet(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()
	calls := 0
	setter := func() (interface{}, error) {
		calls++
		return contact{Name: "Operator", Phone: "+998 90 000 00 00"}, nil
	}

	var first, second contact
	require.NoError(t, c.GetOrSet(ctx, "support", &first, time.Hour, setter))
	require.NoError(t, c.GetOrSet(ctx, "support", &second, time.Hour, setter))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestCacheService_GetOrSetSetterError(t *testing.T) {
	c, _ := setupCache(t)
	boom := errors.New("boom")

	var got contact
	err := c.GetOrSet(context.Background(), "support", &got, time.Hour, func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestCacheService_Delete(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "contact", contact{Name: "Ali"}, time.Minute))
	require.NoError(t, c.Delete(ctx, "contact"))
	assert.False(t, mr.Exists("test:contact"))

	require.NoError(t, c.Delete(ctx, "contact"))
}

func TestCacheService_GetOrSetLogsWriteFailure(t *testing.T) {
	var logs bytes.Buffer
	c, mr := setupCacheWithLogger(t, zerolog.New(&logs))
	mr.Close()

	var got contact
	err := c.GetOrSet(context.Background(), "support", &got, time.Hour, func() (interface{}, error) {
		return contact{Name: "Operator"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Operator", got.Name)
	assert.Contains(t, logs.String(), "Cache write failed")
	assert.Contains(t, logs.String(), "test:support")
}
