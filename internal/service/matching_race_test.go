package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ride-engine/internal/apperr"
	"ride-engine/internal/domain"
	"ride-engine/internal/geo"
)

// localMockLock is a minimal redis.LockStoreInterface stand-in scoped to
// this file, so the matching package's own tests don't need to reach
// into internal/tests for a mock.
type localMockLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func newLocalMockLock() *localMockLock { return &localMockLock{held: make(map[string]bool)} }

func (l *localMockLock) Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return "", false, nil
	}
	l.held[name] = true
	return "tok", true, nil
}

func (l *localMockLock) Release(ctx context.Context, name, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, name)
	return nil
}

func (l *localMockLock) WithLock(ctx context.Context, name string, ttl time.Duration, body func(ctx context.Context) error) error {
	_, ok, err := l.Acquire(ctx, name, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.Conflict, "lock held")
	}
	defer l.Release(ctx, name, "tok")
	return body(ctx)
}

// TestLockExclusivityOnlyOneWinnerAmongConcurrentAcquires is the
// property 7 case: while one of N concurrent attempts holds the same
// named lock, every other attempt is refused, so exactly one body runs.
func TestLockExclusivityOnlyOneWinnerAmongConcurrentAcquires(t *testing.T) {
	t.Parallel()
	lock := newLocalMockLock()
	const attempts = 20

	var wins, losses int32
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			err := lock.WithLock(context.Background(), "ride:race-1:matching", time.Second, func(ctx context.Context) error {
				atomic.AddInt32(&wins, 1)
				// Hold the lock until every other attempt has been refused.
				deadline := time.Now().Add(time.Second)
				for atomic.LoadInt32(&losses) < attempts-1 && time.Now().Before(deadline) {
					time.Sleep(time.Millisecond)
				}
				return nil
			})
			if err != nil {
				atomic.AddInt32(&losses, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("concurrent WithLock winners = %d, want exactly 1", wins)
	}
}

// TestAcceptRideReturnsConflictWhenMatchingLockAlreadyHeld exercises the
// lock seam at the service boundary: a caller that loses the race for a
// ride's matching lock must observe Conflict without ever touching the
// database transaction.
func TestAcceptRideReturnsConflictWhenMatchingLockAlreadyHeld(t *testing.T) {
	t.Parallel()
	lock := newLocalMockLock()
	if _, ok, _ := lock.Acquire(context.Background(), matchingLockName("ride-1"), matchingLockTTL); !ok {
		t.Fatal("setup: failed to pre-acquire the matching lock")
	}

	s := &MatchingService{geo: geo.New(), lock: lock}
	_, err := s.AcceptRide(context.Background(), "ride-1", "driver-1")
	if !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("AcceptRide() with lock held error = %v, want Conflict", err)
	}
}

// TestRankCandidatesOrdersByDistanceThenRatingThenID is the property 1
// case: candidate ranking is deterministic and tier-filtered, so the
// same driver always wins a given race.
func TestRankCandidatesOrdersByDistanceThenRatingThenID(t *testing.T) {
	t.Parallel()
	results := []geo.Result{
		{DriverID: "far", Distance: 5.0, Meta: geo.Meta{Tier: "STANDARD", Rating: 5.0}},
		{DriverID: "near-lower-rated", Distance: 1.0, Meta: geo.Meta{Tier: "STANDARD", Rating: 3.0}},
		{DriverID: "near-higher-rated", Distance: 1.0, Meta: geo.Meta{Tier: "STANDARD", Rating: 4.5}},
		{DriverID: "wrong-tier", Distance: 0.1, Meta: geo.Meta{Tier: "PREMIUM", Rating: 5.0}},
	}

	ranked := rankCandidates(results, domain.RideTier("STANDARD"))
	if len(ranked) != 3 {
		t.Fatalf("len(ranked) = %d, want 3 (PREMIUM candidate must be filtered out)", len(ranked))
	}
	if ranked[0].driverID != "near-higher-rated" || ranked[1].driverID != "near-lower-rated" || ranked[2].driverID != "far" {
		t.Errorf("ranked order = %v, want [near-higher-rated near-lower-rated far]", ranked)
	}
}

// TestRankCandidatesBreaksDistanceTiesOnDriverID asserts candidates
// within the distance epsilon fall back to driver ID ordering once
// rating also ties, so the winner is reproducible across runs.
func TestRankCandidatesBreaksDistanceTiesOnDriverID(t *testing.T) {
	t.Parallel()
	results := []geo.Result{
		{DriverID: "zeta", Distance: 1.0, Meta: geo.Meta{Rating: 4.0}},
		{DriverID: "alpha", Distance: 1.1, Meta: geo.Meta{Rating: 4.0}},
	}

	ranked := rankCandidates(results, "")
	if ranked[0].driverID != "alpha" {
		t.Errorf("ranked[0] = %s, want alpha (tie broken by driver ID)", ranked[0].driverID)
	}
}
