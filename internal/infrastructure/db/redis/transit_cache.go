package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

const transitCacheTTL = 15 * time.Minute

// TransitCache is a short-TTL cache for computed transit-time results.
// Key format: transit:<origin_pincode>:<destination_pincode>
//
// The TTL keeps cached estimates from outliving an aggregation run for long;
// staleness inside the window is acceptable because results only shift when
// new statistics land.
type TransitCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTransitCache creates a TransitCache wrapping the given Redis client.
// A non-positive ttl falls back to the default.
func NewTransitCache(client *redis.Client, ttl time.Duration) *TransitCache {
	if ttl <= 0 {
		ttl = transitCacheTTL
	}
	return &TransitCache{client: client, ttl: ttl}
}

// Get returns the cached result for the route, or nil on a miss.
func (c *TransitCache) Get(ctx context.Context, originPincode, destinationPincode string) (*domain.TransitTimeResult, error) {
	raw, err := c.client.Get(ctx, c.key(originPincode, destinationPincode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("transit cache get: %w", err)
	}

	var result domain.TransitTimeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("transit cache decode: %w", err)
	}
	return &result, nil
}

// Set caches the result under its route key (expires after the TTL).
func (c *TransitCache) Set(ctx context.Context, result *domain.TransitTimeResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("transit cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(result.OriginPincode, result.DestinationPincode), raw, c.ttl).Err()
}

func (c *TransitCache) key(originPincode, destinationPincode string) string {
	return fmt.Sprintf("transit:%s:%s", originPincode, destinationPincode)
}
