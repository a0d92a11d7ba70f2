// Package cache keeps short-lived copies of read-heavy slot projections in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/shreyakodukula/parking/internal/domain"
)

const (
	OccupancyKey      = "parking:occupancy"
	AvailableSlotsKey = "parking:slots:available"
)

// SlotCache is a cache-aside layer. A nil client turns every read into a direct load.
// Redis errors are logged and fall through to the loader.
type SlotCache struct {
	client redis.Cmdable
	ttl    time.Duration
	group  singleflight.Group
}

func NewSlotCache(client redis.Cmdable, ttl time.Duration) *SlotCache {
	return &SlotCache{client: client, ttl: ttl}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (c *SlotCache) Occupancy(ctx context.Context, load func(context.Context) (*domain.OccupancyStats, error)) (*domain.OccupancyStats, error) {
	return getOrLoad(ctx, c, OccupancyKey, load)
}

func (c *SlotCache) AvailableSlots(ctx context.Context, load func(context.Context) ([]domain.ParkingSlot, error)) ([]domain.ParkingSlot, error) {
	return getOrLoad(ctx, c, AvailableSlotsKey, load)
}

// Invalidate drops every cached projection. Called after slot or booking writes.
func (c *SlotCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, OccupancyKey, AvailableSlotsKey).Err(); err != nil {
		slog.Warn("cache invalidation failed", "error", err)
	}
}

func getOrLoad[T any](ctx context.Context, c *SlotCache, key string, load func(context.Context) (T, error)) (T, error) {
	if c.client == nil {
		return load(ctx)
	}
	if v, ok := c.read(ctx, key, new(T)); ok {
		return *v.(*T), nil
	}

	// concurrent misses on the same key share one load
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.write(ctx, key, fresh)
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *SlotCache) read(ctx context.Context, key string, dest interface{}) (interface{}, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		slog.Warn("cache entry corrupt, reloading", "key", key, "error", err)
		return nil, false
	}
	return dest, true
}

func (c *SlotCache) write(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}
