package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"ride-engine/internal/apperr"
	"ride-engine/internal/bus"
	"ride-engine/internal/domain"
	"ride-engine/internal/geo"
	"ride-engine/internal/redis"
	"ride-engine/internal/repository"
	"ride-engine/internal/repository/postgres"
)

const (
	defaultSearchRadiusKm     = 5.0
	defaultMaxAttempts        = 3
	defaultBackoff            = 5 * time.Second
	matchingLockTTL           = 10 * time.Second
	candidateDistanceEpsilonKm = 0.5
)

// MatchingConfig tunes the matching loop.
type MatchingConfig struct {
	MaxAttempts    int
	Backoff        time.Duration
	SearchRadiusKm float64
}

func (c MatchingConfig) withDefaults() MatchingConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.Backoff <= 0 {
		c.Backoff = defaultBackoff
	}
	if c.SearchRadiusKm <= 0 {
		c.SearchRadiusKm = defaultSearchRadiusKm
	}
	return c
}

// MatchingService owns the single-winner assignment primitive and the
// detached matching loop that drives a ride from SEARCHING to MATCHED or
// FAILED.
type MatchingService struct {
	db   *sql.DB
	geo  *geo.Index
	lock redis.LockStoreInterface
	bus  *bus.Bus
	cfg  MatchingConfig

	driverRepo    repository.DriverRepository
	rideRepo      repository.RideRepository
	rideEventRepo repository.RideEventRepository

	notification *NotificationService
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(
	db *sql.DB,
	geoIndex *geo.Index,
	lock redis.LockStoreInterface,
	b *bus.Bus,
	cfg MatchingConfig,
	driverRepo repository.DriverRepository,
	rideRepo repository.RideRepository,
	rideEventRepo repository.RideEventRepository,
	notification *NotificationService,
) *MatchingService {
	return &MatchingService{
		db: db, geo: geoIndex, lock: lock, bus: b, cfg: cfg.withDefaults(),
		driverRepo: driverRepo, rideRepo: rideRepo, rideEventRepo: rideEventRepo,
		notification: notification,
	}
}

func matchingLockName(rideID string) string { return "ride:" + rideID + ":matching" }

// AcceptRide is the atomic, mutually exclusive SEARCHING -> MATCHED
// transition. Concurrent callers proposing distinct drivers for the same
// ride race on the ride's matching lock; exactly one succeeds, the rest
// observe Conflict. Called both by the automatic matching loop and by a
// manual driver-initiated accept.
func (s *MatchingService) AcceptRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	var result *domain.Ride

	err := s.lock.WithLock(ctx, matchingLockName(rideID), matchingLockTTL, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return apperr.Wrap(apperr.Dependency, "begin match transaction", err)
		}
		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()

		txRideRepo := postgres.NewRideRepositoryWithTx(tx)
		txDriverRepo := postgres.NewDriverRepositoryWithTx(tx)
		txEventRepo := postgres.NewRideEventRepositoryWithTx(tx)

		ride, err := txRideRepo.GetByID(ctx, rideID)
		if err != nil {
			return err
		}
		if ride.Status != domain.RideStatusSearching {
			return apperr.New(apperr.Conflict, "ride is no longer searching")
		}

		driver, err := txDriverRepo.GetByID(ctx, driverID)
		if err != nil {
			return err
		}
		if driver.Status != domain.DriverStatusAvailable {
			return apperr.New(apperr.Conflict, "driver is no longer available")
		}

		driverAssigned, err := txDriverRepo.UpdateStatusIfCurrent(ctx, driverID, domain.DriverStatusAvailable, domain.DriverStatusOnRide)
		if err != nil {
			return err
		}
		if !driverAssigned {
			return apperr.New(apperr.Conflict, "driver assignment lost the race")
		}

		rideMatched, err := txRideRepo.UpdateStatusIfCurrent(ctx, rideID, domain.RideStatusSearching, domain.RideStatusMatched)
		if err != nil {
			return err
		}
		if !rideMatched {
			return apperr.New(apperr.Conflict, "ride matching lost the race")
		}

		ride.Status = domain.RideStatusMatched
		ride.AssignedDriverID = driverID
		ride.MatchedAt = time.Now()
		if err := txRideRepo.Update(ctx, ride); err != nil {
			return err
		}

		if err := txEventRepo.Create(ctx, &domain.RideEvent{
			ID: newID(), RideID: rideID, Type: domain.RideEventDriverMatched,
			Payload: `{"driverId":"` + driverID + `"}`, CreatedAt: time.Now(),
		}); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return apperr.Wrap(apperr.Dependency, "commit match transaction", err)
		}
		committed = true

		s.geo.Remove(driverID)
		result = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		_ = s.bus.Publish(ctx, bus.RideTopic(rideID), bus.RideStatusEvent{Status: string(domain.RideStatusMatched), DriverID: driverID})
	}
	if s.notification != nil {
		_ = s.notification.NotifyDriverMatched(ctx, result)
	}
	return result, nil
}

type candidate struct {
	driverID string
	distance float64
	rating   float64
}

func rankCandidates(results []geo.Result, tier domain.RideTier) []candidate {
	candidates := make([]candidate, 0, len(results))
	for _, r := range results {
		if tier != "" && r.Meta.Tier != string(tier) {
			continue
		}
		candidates = append(candidates, candidate{driverID: r.DriverID, distance: r.Distance, rating: r.Meta.Rating})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if diff := candidates[i].distance - candidates[j].distance; diff < -candidateDistanceEpsilonKm || diff > candidateDistanceEpsilonKm {
			return candidates[i].distance < candidates[j].distance
		}
		if candidates[i].rating != candidates[j].rating {
			return candidates[i].rating > candidates[j].rating
		}
		return candidates[i].driverID < candidates[j].driverID
	})
	return candidates
}

// RunMatchingLoop drives a ride from SEARCHING to MATCHED or FAILED. It
// is started as a detached goroutine at ride creation (fire-and-forget
// per the design notes); its outcome is observable only through the
// ride's status and the update bus, never returned to a caller.
func (s *MatchingService) RunMatchingLoop(ctx context.Context, rideID string, pickupLat, pickupLng float64, tier domain.RideTier) {
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		ride, err := s.rideRepo.GetByID(ctx, rideID)
		if err != nil || ride.Status != domain.RideStatusSearching {
			return
		}

		results := s.geo.Query(pickupLat, pickupLng, s.cfg.SearchRadiusKm, 10)
		candidates := rankCandidates(results, tier)

		for _, c := range candidates {
			_, err := s.AcceptRide(ctx, rideID, c.driverID)
			if err == nil {
				return
			}
			if !apperr.Is(err, apperr.Conflict) {
				return
			}
		}

		if attempt < s.cfg.MaxAttempts {
			time.Sleep(s.cfg.Backoff)
		}
	}

	s.failRide(ctx, rideID)
}

func (s *MatchingService) failRide(ctx context.Context, rideID string) {
	ok, err := s.rideRepo.UpdateStatusIfCurrent(ctx, rideID, domain.RideStatusSearching, domain.RideStatusFailed)
	if err != nil || !ok {
		return
	}
	_ = s.rideEventRepo.Create(ctx, &domain.RideEvent{
		ID: newID(), RideID: rideID, Type: domain.RideEventNoDriversFound, CreatedAt: time.Now(),
	})
	if s.bus != nil {
		_ = s.bus.Publish(ctx, bus.RideTopic(rideID), bus.RideStatusEvent{Status: string(domain.RideStatusFailed)})
	}
	if s.notification != nil {
		ride, err := s.rideRepo.GetByID(ctx, rideID)
		if err == nil {
			_ = s.notification.NotifyNoDriversFound(ctx, ride)
		}
	}
}
