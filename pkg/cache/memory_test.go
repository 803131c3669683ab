package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status struct {
	AsOf  string `json:"as_of"`
	Rows  int    `json:"rows"`
	Ready bool   `json:"ready"`
}

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "status", status{AsOf: "2024-05-31", Rows: 12, Ready: true}, 0))

	var got status
	require.NoError(t, c.Get(ctx, "status", &got))
	assert.Equal(t, status{AsOf: "2024-05-31", Rows: 12, Ready: true}, got)

	require.NoError(t, c.Delete(ctx, "status"))
	assert.ErrorIs(t, c.Get(ctx, "status", &got), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(WithMemoryClock(func() time.Time { return now }))

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	now = now.Add(2 * time.Minute)

	var s string
	assert.ErrorIs(t, c.Get(ctx, "k", &s), ErrCacheMiss)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))

	require.NoError(t, c.Set(ctx, "a", 1, 0))
	require.NoError(t, c.Set(ctx, "b", 2, 0))
	var v int
	require.NoError(t, c.Get(ctx, "a", &v))
	require.NoError(t, c.Set(ctx, "c", 3, 0))

	assert.ErrorIs(t, c.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "a", &v))
	assert.NoError(t, c.Get(ctx, "c", &v))
}

func TestMemoryCacheLock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(WithMemoryClock(func() time.Time { return now }))

	ok, err := c.TryLock(ctx, "run-lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryLock(ctx, "run-lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while held")

	require.NoError(t, c.Unlock(ctx, "run-lock"))
	ok, err = c.TryLock(ctx, "run-lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// an abandoned lock expires with its ttl
	now = now.Add(2 * time.Minute)
	ok, err = c.TryLock(ctx, "run-lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCacheUnlockUnknown(t *testing.T) {
	c := NewMemoryCache()
	assert.ErrorIs(t, c.Unlock(context.Background(), "nope"), ErrCacheMiss)
}
