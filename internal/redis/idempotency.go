package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"ride-engine/internal/apperr"
)

const idempotencyKeyPrefix = "idempotency:"

// IdempotencyStore records a first-writer-wins claim on an idempotency key
// and caches the response that was produced for it, so a retried request
// with the same key replays the original outcome instead of re-executing
// the operation (e.g. double-charging a rider, creating two rides).
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Claim atomically reserves key for ttl. claimed is true only for the
// first caller to present this key; every subsequent caller within ttl
// gets claimed=false and should not repeat the operation.
func (s *IdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (claimed bool, err error) {
	ok, err := s.client.SetNX(ctx, idempotencyKeyPrefix+key, "", ttl).Result()
	if err != nil {
		return false, apperr.Wrap(apperr.Dependency, "idempotency claim", err)
	}
	return ok, nil
}

// Store records the response bytes produced for key, so future retries
// can replay it instead of recomputing or re-executing the operation.
func (s *IdempotencyStore) Store(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, idempotencyKeyPrefix+key, response, ttl).Err(); err != nil {
		return apperr.Wrap(apperr.Dependency, "idempotency store", err)
	}
	return nil
}

// Get returns the cached response for key, if any.
func (s *IdempotencyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, apperr.Wrap(apperr.Dependency, "idempotency get", err)
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}
