package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"ride-engine/internal/apperr"
	"ride-engine/internal/bus"
	"ride-engine/internal/domain"
	"ride-engine/internal/geo"
	"ride-engine/internal/redis"
	"ride-engine/internal/repository"
)

// assumedAverageSpeedKmh backs the estimated duration shown at ride
// creation, before a driver or route is known. It is never used once a
// trip is underway; endTrip prices off actual elapsed time.
const assumedAverageSpeedKmh = 30.0

// cancellationFeeRate is applied to the estimated fare once a ride has
// left SEARCHING (MATCHED or later). Per the design notes this is computed and
// recorded for later billing reconciliation but never itself charged.
const cancellationFeeRate = 0.10

// RideService owns the ride lifecycle: creation, lookup, history, and
// the rider/driver-facing state transitions that happen outside the
// trip proper (arriving, arrived, cancellation).
type RideService struct {
	geo   *geo.Index
	lock  redis.LockStoreInterface
	bus   *bus.Bus
	cache *redis.CacheStore

	rideRepo      repository.RideRepository
	tripRepo      repository.TripRepository
	driverRepo    repository.DriverRepository
	rideEventRepo repository.RideEventRepository
	pricingRepo   repository.PricingConfigRepository

	surge        *SurgeService
	matching     *MatchingService
	notification *NotificationService
}

// NewRideService creates a new RideService.
func NewRideService(
	geoIndex *geo.Index,
	lock redis.LockStoreInterface,
	b *bus.Bus,
	cache *redis.CacheStore,
	rideRepo repository.RideRepository,
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
	rideEventRepo repository.RideEventRepository,
	pricingRepo repository.PricingConfigRepository,
	surge *SurgeService,
	matching *MatchingService,
	notification *NotificationService,
) *RideService {
	return &RideService{
		geo: geoIndex, lock: lock, bus: b, cache: cache,
		rideRepo: rideRepo, tripRepo: tripRepo, driverRepo: driverRepo,
		rideEventRepo: rideEventRepo, pricingRepo: pricingRepo,
		surge: surge, matching: matching, notification: notification,
	}
}

// warmRideCache writes through the ride cache entry after a mutation,
// mirroring warmDriverCache.
func (s *RideService) warmRideCache(ctx context.Context, ride *domain.Ride) {
	if s.cache == nil || ride == nil {
		return
	}
	_ = s.cache.SetRide(ctx, &redis.CachedRide{
		ID: ride.ID, RiderID: ride.RiderID, Status: string(ride.Status),
		AssignedDriverID: ride.AssignedDriverID, SurgeMultiplier: ride.SurgeMultiplier,
	})
}

// CreateRideRequest contains the parameters for requesting a ride.
type CreateRideRequest struct {
	RiderID        string
	Region         string // empty resolves to defaultRegion
	PickupLat      float64
	PickupLng      float64
	PickupAddress  string
	DropoffLat     float64
	DropoffLng     float64
	DropoffAddress string
	Tier           domain.RideTier // empty means any tier
	PaymentMethod  domain.PaymentMethod
	IdempotencyKey string // empty disables dedupe
}

func (r CreateRideRequest) validate() error {
	if r.RiderID == "" {
		return ErrInvalidRiderID
	}
	if !isValidLatitude(r.PickupLat) || !isValidLongitude(r.PickupLng) {
		return ErrInvalidPickupLocation
	}
	if !isValidLatitude(r.DropoffLat) || !isValidLongitude(r.DropoffLng) {
		return ErrInvalidDestinationLocation
	}
	return nil
}

// ValidatePaymentMethod validates a payment method string.
func ValidatePaymentMethod(method string) (domain.PaymentMethod, error) {
	switch domain.PaymentMethod(method) {
	case domain.PaymentMethodCash, domain.PaymentMethodCard,
		domain.PaymentMethodWallet, domain.PaymentMethodUPI:
		return domain.PaymentMethod(method), nil
	case "":
		return domain.PaymentMethodCash, nil // Default to cash
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// CreateRide validates the request, prices the trip, persists the ride
// in SEARCHING, and launches the detached matching loop. A repeated call
// with the same idempotency key replays the original ride rather than
// creating a second one.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.rideRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	region := req.Region
	if region == "" {
		region = defaultRegion
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = domain.PaymentMethodCash
	}

	surgeMultiplier := defaultSurgeMultiplier
	if s.surge != nil {
		surgeMultiplier = s.surge.GetMultiplier(ctx, region, req.PickupLat, req.PickupLng)
	}

	distanceKm := geo.HaversineKm(req.PickupLat, req.PickupLng, req.DropoffLat, req.DropoffLng)
	durationSec := int((distanceKm / assumedAverageSpeedKmh) * 3600)

	estimatedFare := distanceKm * surgeMultiplier // coarse estimate; refined below if pricing is configured
	if s.pricingRepo != nil {
		if cfg, err := s.pricingRepo.GetActive(ctx, region, req.Tier); err == nil && cfg != nil {
			fare := computeEstimate(cfg, distanceKm, float64(durationSec), surgeMultiplier)
			estimatedFare = fare
		}
	}

	ride := &domain.Ride{
		ID:                   newID(),
		RiderID:              req.RiderID,
		Region:               region,
		PickupLat:            req.PickupLat,
		PickupLng:            req.PickupLng,
		PickupAddress:        req.PickupAddress,
		DropoffLat:           req.DropoffLat,
		DropoffLng:           req.DropoffLng,
		DropoffAddress:       req.DropoffAddress,
		RequestedTier:        req.Tier,
		Status:               domain.RideStatusSearching,
		EstimatedFare:        estimatedFare,
		EstimatedDistanceKm:  distanceKm,
		EstimatedDurationSec: durationSec,
		SurgeMultiplier:      surgeMultiplier,
		PaymentMethod:        paymentMethod,
		IdempotencyKey:       req.IdempotencyKey,
		CreatedAt:            time.Now(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	_ = s.rideEventRepo.Create(ctx, &domain.RideEvent{
		ID: newID(), RideID: ride.ID, Type: domain.RideEventCreated, CreatedAt: time.Now(),
	})
	if s.bus != nil {
		_ = s.bus.Publish(ctx, bus.RideTopic(ride.ID), bus.RideStatusEvent{Status: string(ride.Status)})
	}

	if s.matching != nil {
		// Detached: the matching loop outlives this request. Its
		// outcome surfaces only through ride status and the update bus.
		go s.matching.RunMatchingLoop(context.Background(), ride.ID, ride.PickupLat, ride.PickupLng, ride.RequestedTier)
	}
	s.warmRideCache(ctx, ride)

	return ride, nil
}

func computeEstimate(cfg *domain.PricingConfig, distanceKm, durationSec, surge float64) float64 {
	distanceFare := distanceKm * cfg.PerKmRate
	timeFare := (durationSec / 60) * cfg.PerMinRate
	subtotal := cfg.BaseFare + distanceFare + timeFare
	return subtotal * surge
}

// GetRide returns a ride by ID.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	return s.rideRepo.GetByID(ctx, rideID)
}

// ListRiderHistory returns a rider's past rides, paginated.
func (s *RideService) ListRiderHistory(ctx context.Context, riderID string, page, limit int) ([]*domain.Ride, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}
	return s.rideRepo.ListByRider(ctx, riderID, page, limit)
}

// CancelRide cancels a ride on behalf of the rider, driver, or system.
// It serializes against the matching loop on the same lock so a
// cancellation can never race a concurrent AcceptRide for this ride.
func (s *RideService) CancelRide(ctx context.Context, rideID string, cancelledBy domain.CancelledBy, reason string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	var result *domain.Ride
	err := s.lock.WithLock(ctx, matchingLockName(rideID), matchingLockTTL, func(ctx context.Context) error {
		ride, err := s.rideRepo.GetByID(ctx, rideID)
		if err != nil {
			return err
		}
		if !domain.CanCancelRide(ride.Status) {
			return ErrRideCannotBeCancelled
		}

		fee := 0.0
		if ride.Status != domain.RideStatusSearching {
			fee = math.Round(ride.EstimatedFare * cancellationFeeRate)
		}

		ride.Status = domain.RideStatusCancelled
		ride.CancelledAt = time.Now()
		ride.CancelledBy = cancelledBy
		ride.CancelReason = reason
		ride.CancellationFee = fee

		if err := s.rideRepo.Update(ctx, ride); err != nil {
			return err
		}

		if ride.AssignedDriverID != "" {
			if _, err := s.driverRepo.UpdateStatusIfCurrent(ctx, ride.AssignedDriverID, domain.DriverStatusOnRide, domain.DriverStatusAvailable); err != nil {
				return err
			}
			if driver, err := s.driverRepo.GetByID(ctx, ride.AssignedDriverID); err == nil && s.geo != nil {
				s.geo.Add(driver.ID, driver.LastLat, driver.LastLng, geo.Meta{Tier: string(driver.Tier), Rating: driver.Rating}, time.Now().UnixNano())
			}
		}

		_ = s.rideEventRepo.Create(ctx, &domain.RideEvent{
			ID: newID(), RideID: ride.ID, Type: domain.RideEventCancelled,
			Payload: fmt.Sprintf(`{"cancelledBy":%q,"reason":%q}`, cancelledBy, reason), CreatedAt: time.Now(),
		})

		result = ride
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.warmRideCache(ctx, result)

	if s.bus != nil {
		_ = s.bus.Publish(ctx, bus.RideTopic(rideID), bus.RideStatusEvent{Status: string(domain.RideStatusCancelled)})
	}
	if s.notification != nil {
		_ = s.notification.NotifyRideCancelled(ctx, result, cancelledBy, reason)
	}
	return result, nil
}

// MarkArriving transitions a matched ride to DRIVER_ARRIVING, called by
// the assigned driver once en route.
func (s *RideService) MarkArriving(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.AssignedDriverID != driverID {
		return nil, ErrDriverNotAssigned
	}
	if !domain.CanTransitionRide(ride.Status, domain.RideStatusDriverArriving) {
		return nil, apperr.New(apperr.Validation, "ride not in a state to mark arriving")
	}

	ok, err := s.rideRepo.UpdateStatusIfCurrent(ctx, rideID, domain.RideStatusMatched, domain.RideStatusDriverArriving)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.Conflict, "ride status changed concurrently")
	}
	ride.Status = domain.RideStatusDriverArriving

	if s.bus != nil {
		_ = s.bus.Publish(ctx, bus.RideTopic(rideID), bus.RideStatusEvent{Status: string(ride.Status), DriverID: driverID})
	}
	if s.notification != nil {
		_ = s.notification.NotifyDriverArriving(ctx, ride)
	}
	return ride, nil
}

// generateOTP produces the 4-digit start code shared out-of-band between
// rider and driver.
func generateOTP() string {
	return fmt.Sprintf("%04d", rand.Intn(10000))
}

// MarkArrived transitions the ride to ARRIVED, generates the start OTP,
// and creates the PENDING trip row with pricing inputs frozen from the
// currently active config so later price changes never affect this trip.
func (s *RideService) MarkArrived(ctx context.Context, rideID, driverID string) (*domain.Ride, string, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, "", err
	}
	if ride.AssignedDriverID != driverID {
		return nil, "", ErrDriverNotAssigned
	}

	ok, err := s.rideRepo.UpdateStatusIfCurrent(ctx, rideID, domain.RideStatusDriverArriving, domain.RideStatusArrived)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", apperr.New(apperr.Conflict, "ride status changed concurrently")
	}
	ride.Status = domain.RideStatusArrived

	var cfg *domain.PricingConfig
	if s.pricingRepo != nil {
		cfg, _ = s.pricingRepo.GetActive(ctx, ride.Region, ride.RequestedTier)
	}
	if cfg == nil {
		cfg = &domain.PricingConfig{Region: ride.Region, Tier: ride.RequestedTier}
	}

	otp := generateOTP()
	trip := &domain.Trip{
		ID:              newID(),
		RideID:          ride.ID,
		DriverID:        driverID,
		RiderID:         ride.RiderID,
		Status:          domain.TripStatusPending,
		BaseFare:        cfg.BaseFare,
		PerKmRate:       cfg.PerKmRate,
		PerMinRate:      cfg.PerMinRate,
		SurgeMultiplier: ride.SurgeMultiplier,
		StartOTP:        otp,
	}
	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, "", err
	}

	_ = s.rideEventRepo.Create(ctx, &domain.RideEvent{
		ID: newID(), RideID: ride.ID, Type: domain.RideEventDriverArrived, CreatedAt: time.Now(),
	})
	if s.bus != nil {
		_ = s.bus.Publish(ctx, bus.RideTopic(rideID), bus.RideStatusEvent{Status: string(ride.Status), DriverID: driverID})
	}
	if s.notification != nil {
		_ = s.notification.NotifyDriverArrived(ctx, ride, otp)
	}

	return ride, otp, nil
}
