package redis

import (
	"context"
	"fmt"
	"time"

	networktypes "github.com/turtacn/MetaNet/pkg/types/network"
)

const closureKeyPrefix = "closure:"

// ClosureCache stores closure results keyed by compartment and a fingerprint
// of everything the result depends on.
type ClosureCache struct {
	cache Cache
	ttl   time.Duration
}

// NewClosureCache wraps cache.  A zero ttl uses the cache default.
func NewClosureCache(cache Cache, ttl time.Duration) *ClosureCache {
	return &ClosureCache{cache: cache, ttl: ttl}
}

// ClosureKey builds the cache key for one closure.
func ClosureKey(compartment int, fingerprint string) string {
	return fmt.Sprintf("%s%d:%s", closureKeyPrefix, compartment, fingerprint)
}

// GetOrCompute returns the cached closure for key, or runs compute and stores
// its result.  Cached is set on results served from Redis.
func (c *ClosureCache) GetOrCompute(ctx context.Context, key string,
	compute func(ctx context.Context) (networktypes.ClosureResponse, error)) (networktypes.ClosureResponse, error) {
	var out networktypes.ClosureResponse
	hit, err := c.cache.GetOrSet(ctx, key, &out, c.ttl, func(ctx context.Context) (interface{}, error) {
		return compute(ctx)
	})
	if err != nil {
		return networktypes.ClosureResponse{}, err
	}
	out.Cached = hit
	return out, nil
}

// InvalidateCompartment drops every cached closure of one compartment.
func (c *ClosureCache) InvalidateCompartment(ctx context.Context, compartment int) (int64, error) {
	return c.cache.DeleteByPrefix(ctx, fmt.Sprintf("%s%d:", closureKeyPrefix, compartment))
}

// InvalidateAll drops every cached closure.
func (c *ClosureCache) InvalidateAll(ctx context.Context) (int64, error) {
	return c.cache.DeleteByPrefix(ctx, closureKeyPrefix)
}

// Ping checks the backing store.
func (c *ClosureCache) Ping(ctx context.Context) error {
	return c.cache.Ping(ctx)
}
