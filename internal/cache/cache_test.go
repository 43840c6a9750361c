package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loungepos/internal/models"
)

func newTestCache(t *testing.T) (*StationCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, time.Minute), mr
}

func TestStationCache(t *testing.T) {
	ctx := context.Background()
	stations := []models.Station{
		{ID: "ps5-1", Name: "PS5 #1", Kind: models.KindConsole, HourlyRate: 150},
		{ID: "pool-1", Name: "Pool 1", Kind: models.KindBilliard, HourlyRate: 300},
	}

	t.Run("MissThenHit", func(t *testing.T) {
		c, _ := newTestCache(t)

		_, ok := c.Get(ctx)
		assert.False(t, ok)

		c.Set(ctx, stations)
		got, ok := c.Get(ctx)
		require.True(t, ok)
		assert.Equal(t, stations, got)
	})

	t.Run("Invalidate", func(t *testing.T) {
		c, _ := newTestCache(t)
		c.Set(ctx, stations)

		c.Invalidate(ctx)
		_, ok := c.Get(ctx)
		assert.False(t, ok)
	})

	t.Run("TTLExpiry", func(t *testing.T) {
		c, mr := newTestCache(t)
		c.Set(ctx, stations)

		mr.FastForward(2 * time.Minute)
		_, ok := c.Get(ctx)
		assert.False(t, ok)
	})

	t.Run("Disabled", func(t *testing.T) {
		c := New(nil, time.Minute)
		assert.False(t, c.Enabled())
		_, ok := c.Get(ctx)
		assert.False(t, ok)
		c.Set(ctx, stations) // no-op, must not panic
		c.Invalidate(ctx)
	})

	t.Run("RedisDownIsAMiss", func(t *testing.T) {
		c, mr := newTestCache(t)
		c.Set(ctx, stations)
		mr.Close()

		_, ok := c.Get(ctx)
		assert.False(t, ok)
	})
}
