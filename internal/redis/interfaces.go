package redis

import (
	"context"
	"time"
)

// PositionCacheInterface defines the interface for mirroring driver
// positions into Redis, independent of the in-memory Geo Index.
type PositionCacheInterface interface {
	Set(ctx context.Context, p DriverPosition) error
	Get(ctx context.Context, driverID string) (DriverPosition, bool, error)
	Delete(ctx context.Context, driverID string) error
	All(ctx context.Context) ([]DriverPosition, error)
}

// LockStoreInterface defines the interface for distributed, fenced locking.
type LockStoreInterface interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, name, token string) error
	WithLock(ctx context.Context, name string, ttl time.Duration, body func(ctx context.Context) error) error
}

// Ensure concrete types implement interfaces.
var (
	_ PositionCacheInterface = (*PositionCache)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
