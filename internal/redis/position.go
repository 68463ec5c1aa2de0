package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const positionCacheTTL = 45 * time.Second

const positionKeyPrefix = "position:"

// DriverPosition is the JSON shape mirrored into Redis for each driver.
type DriverPosition struct {
	DriverID  string  `json:"driver_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	UpdatedAt int64   `json:"updated_at"`
}

// PositionCache is a plain SET/GET mirror of each driver's last known
// position. It lets other processes sharing the same Redis instance read
// a driver's last position without going through the Geo Index, which
// lives in a single process's memory; geo.Index is not rebuilt from it on
// restart. It is a shadow of the Geo
// Index, never its source of truth: matching always queries geo.Index,
// never this cache.
type PositionCache struct {
	client *redis.Client
}

// NewPositionCache creates a new PositionCache.
func NewPositionCache(client *redis.Client) *PositionCache {
	return &PositionCache{client: client}
}

// Set mirrors a driver's position with a short TTL so a crashed driver
// app stops reporting a live location once pings stop arriving.
func (c *PositionCache) Set(ctx context.Context, p DriverPosition) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, positionKeyPrefix+p.DriverID, data, positionCacheTTL).Err()
}

// Get returns the last mirrored position, or ok=false on a cache miss.
func (c *PositionCache) Get(ctx context.Context, driverID string) (DriverPosition, bool, error) {
	data, err := c.client.Get(ctx, positionKeyPrefix+driverID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return DriverPosition{}, false, nil
		}
		return DriverPosition{}, false, err
	}
	var p DriverPosition
	if err := json.Unmarshal(data, &p); err != nil {
		return DriverPosition{}, false, err
	}
	return p, true, nil
}

// Delete removes the mirrored position, used when a driver goes offline.
func (c *PositionCache) Delete(ctx context.Context, driverID string) error {
	return c.client.Del(ctx, positionKeyPrefix+driverID).Err()
}

// All scans every mirrored position. Nothing in this module calls it.
func (c *PositionCache) All(ctx context.Context) ([]DriverPosition, error) {
	var positions []DriverPosition
	iter := c.client.Scan(ctx, 0, positionKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		data, err := c.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		var p DriverPosition
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		positions = append(positions, p)
	}
	return positions, iter.Err()
}
