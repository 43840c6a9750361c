// Package cache provides an optional Redis read cache for station listings.
// A nil client disables caching entirely; the API layer falls back to the
// engine snapshot.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"loungepos/internal/models"
)

const stationsKey = "loungepos:stations"

// StationCache caches the station list as a JSON blob.
type StationCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// New constructs a station cache. Either argument being zero disables it.
func New(client *redis.Client, ttl time.Duration) *StationCache {
	return &StationCache{redis: client, ttl: ttl}
}

// Enabled reports whether the cache will serve reads.
func (c *StationCache) Enabled() bool {
	return c != nil && c.redis != nil && c.ttl > 0
}

// Get returns the cached station list, or ok=false on miss or any error.
func (c *StationCache) Get(ctx context.Context) ([]models.Station, bool) {
	if !c.Enabled() {
		return nil, false
	}
	val, err := c.redis.Get(ctx, stationsKey).Result()
	if err != nil {
		return nil, false
	}
	var stations []models.Station
	if err := json.Unmarshal([]byte(val), &stations); err != nil {
		return nil, false
	}
	return stations, true
}

// Set stores the station list. Errors are ignored; the cache is best-effort.
func (c *StationCache) Set(ctx context.Context, stations []models.Station) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(stations)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, stationsKey, data, c.ttl).Err()
}

// Invalidate drops the cached list. Called when occupancy changes.
func (c *StationCache) Invalidate(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	_ = c.redis.Del(ctx, stationsKey).Err()
}
