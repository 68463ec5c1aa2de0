package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ride-engine/internal/apperr"
)

// releaseScript deletes the key only if its value still equals the token
// the caller holds, giving release its compare-and-delete (fencing)
// semantics: a caller can never release a lock it no longer holds, even
// if the lock has since expired and been re-acquired by someone else.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// LockStore is a named, TTL-bounded mutual-exclusion primitive backed by
// Redis SETNX, with ownership fencing on release.
type LockStore struct {
	client  *redis.Client
	release *redis.Script
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client, release: redis.NewScript(releaseScript)}
}

func lockKey(name string) string { return fmt.Sprintf("lock:%s", name) }

// Acquire atomically binds name to a freshly minted token if unbound.
// Returns the token and true on success; empty string and false if the
// name is already locked.
func (s *LockStore) Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, lockKey(name), token, ttl).Result()
	if err != nil {
		return "", false, apperr.Wrap(apperr.Dependency, "lock acquire", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release deletes the binding only when the stored token equals token
// (CAS), so a caller whose lock already expired and was re-acquired by
// someone else can never release that new holder's lock.
func (s *LockStore) Release(ctx context.Context, name, token string) error {
	_, err := s.release.Run(ctx, s.client, []string{lockKey(name)}, token).Result()
	if err != nil && err != redis.Nil {
		return apperr.Wrap(apperr.Dependency, "lock release", err)
	}
	return nil
}

// WithLock acquires name, runs body, and releases it on every path.
// Failure to acquire returns a Conflict error without running body.
func (s *LockStore) WithLock(ctx context.Context, name string, ttl time.Duration, body func(ctx context.Context) error) error {
	token, ok, err := s.Acquire(ctx, name, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.Conflict, fmt.Sprintf("lock %q already held", name))
	}
	defer s.Release(context.WithoutCancel(ctx), name, token)

	return body(ctx)
}
