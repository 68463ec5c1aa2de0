package service

import (
	"context"
	"database/sql"
	"time"

	"ride-engine/internal/apperr"
	"ride-engine/internal/bus"
	"ride-engine/internal/domain"
	"ride-engine/internal/geo"
	"ride-engine/internal/pricing"
	"ride-engine/internal/repository"
	"ride-engine/internal/repository/postgres"
)

// TripService drives a trip from its PENDING row (created at
// MarkArrived) through STARTED to COMPLETED, pricing the fare once at
// the end from inputs frozen at arrival time.
type TripService struct {
	db  *sql.DB
	geo *geo.Index
	bus *bus.Bus

	tripRepo      repository.TripRepository
	rideRepo      repository.RideRepository
	driverRepo    repository.DriverRepository
	riderRepo     repository.RiderRepository
	rideEventRepo repository.RideEventRepository
	earningRepo   repository.EarningRepository

	receipt      *ReceiptService
	notification *NotificationService
}

// NewTripService creates a new TripService.
func NewTripService(
	db *sql.DB,
	geoIndex *geo.Index,
	b *bus.Bus,
	tripRepo repository.TripRepository,
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	riderRepo repository.RiderRepository,
	rideEventRepo repository.RideEventRepository,
	earningRepo repository.EarningRepository,
	receipt *ReceiptService,
	notification *NotificationService,
) *TripService {
	return &TripService{
		db: db, geo: geoIndex, bus: b,
		tripRepo: tripRepo, rideRepo: rideRepo, driverRepo: driverRepo, riderRepo: riderRepo,
		rideEventRepo: rideEventRepo, earningRepo: earningRepo,
		receipt: receipt, notification: notification,
	}
}

// StartTrip validates the rider-supplied OTP against the trip's frozen
// StartOTP and, on a match, transitions trip PENDING->STARTED and ride
// ARRIVED->IN_PROGRESS inside one transaction. A mismatch leaves both
// rows untouched so the rider can retry.
func (s *TripService) StartTrip(ctx context.Context, tripID, otp string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != domain.TripStatusPending {
		return nil, ErrTripNotPending
	}
	if trip.StartOTP != otp {
		return nil, ErrOTPMismatch
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Dependency, "begin start-trip transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	txTripRepo := postgres.NewTripRepositoryWithTx(tx)
	txRideRepo := postgres.NewRideRepositoryWithTx(tx)

	trip.Status = domain.TripStatusStarted
	trip.StartedAt = time.Now()
	if err := txTripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	rideMoved, err := txRideRepo.UpdateStatusIfCurrent(ctx, trip.RideID, domain.RideStatusArrived, domain.RideStatusInProgress)
	if err != nil {
		return nil, err
	}
	if !rideMoved {
		return nil, apperr.New(apperr.Conflict, "ride status changed concurrently")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.Dependency, "commit start-trip transaction", err)
	}
	committed = true

	_ = s.rideEventRepo.Create(ctx, &domain.RideEvent{
		ID: newID(), RideID: trip.RideID, Type: domain.RideEventTripStarted, CreatedAt: time.Now(),
	})
	if s.bus != nil {
		_ = s.bus.Publish(ctx, bus.RideTopic(trip.RideID), bus.RideStatusEvent{Status: string(domain.RideStatusInProgress), DriverID: trip.DriverID})
	}
	if s.notification != nil {
		if ride, err := s.rideRepo.GetByID(ctx, trip.RideID); err == nil {
			_ = s.notification.NotifyTripStarted(ctx, ride)
		}
	}

	return trip, nil
}

// EndTripResult bundles everything produced by ending a trip.
type EndTripResult struct {
	Trip    *domain.Trip
	Receipt *domain.Receipt
}

// EndTrip prices the trip from its frozen inputs and actual duration,
// transitions trip STARTED->COMPLETED and ride IN_PROGRESS->COMPLETED,
// releases the driver back to AVAILABLE in the geo index, records the
// driver's earning, bumps the rider's ride count, and generates the
// receipt. Charging payment is a separate, explicitly triggered
// operation, never implied by ending a trip.
func (s *TripService) EndTrip(ctx context.Context, tripID string, actualDistanceKm float64, routePath string) (*EndTripResult, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != domain.TripStatusStarted {
		return nil, ErrTripNotStarted
	}

	endedAt := time.Now()
	durationSec := endedAt.Sub(trip.StartedAt).Seconds()
	fare := pricing.Compute(pricing.Inputs{
		DistanceKm:      actualDistanceKm,
		DurationSec:     durationSec,
		BaseFare:        trip.BaseFare,
		PerKmRate:       trip.PerKmRate,
		PerMinRate:      trip.PerMinRate,
		SurgeMultiplier: trip.SurgeMultiplier,
	})

	trip.EndedAt = endedAt
	trip.ActualDistanceKm = actualDistanceKm
	trip.RoutePath = routePath
	trip.DistanceFare = fare.DistanceFare
	trip.TimeFare = fare.TimeFare
	trip.SurgeAmount = fare.SurgeAmount
	trip.FinalFare = fare.FinalFare
	trip.PlatformFee = fare.PlatformFee
	trip.DriverEarnings = fare.DriverEarnings
	trip.Status = domain.TripStatusCompleted

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Dependency, "begin end-trip transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	txTripRepo := postgres.NewTripRepositoryWithTx(tx)
	txRideRepo := postgres.NewRideRepositoryWithTx(tx)
	txDriverRepo := postgres.NewDriverRepositoryWithTx(tx)

	if err := txTripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	rideMoved, err := txRideRepo.UpdateStatusIfCurrent(ctx, trip.RideID, domain.RideStatusInProgress, domain.RideStatusCompleted)
	if err != nil {
		return nil, err
	}
	if !rideMoved {
		return nil, apperr.New(apperr.Conflict, "ride status changed concurrently")
	}

	driverFreed, err := txDriverRepo.UpdateStatusIfCurrent(ctx, trip.DriverID, domain.DriverStatusOnRide, domain.DriverStatusAvailable)
	if err != nil {
		return nil, err
	}
	if !driverFreed {
		return nil, apperr.New(apperr.Conflict, "driver status changed concurrently")
	}
	if err := txDriverRepo.IncrementTotalTrips(ctx, trip.DriverID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.Dependency, "commit end-trip transaction", err)
	}
	committed = true

	if s.geo != nil {
		if driver, err := s.driverRepo.GetByID(ctx, trip.DriverID); err == nil {
			s.geo.Add(driver.ID, driver.LastLat, driver.LastLng, geo.Meta{Tier: string(driver.Tier), Rating: driver.Rating}, time.Now().UnixNano())
		}
	}

	_ = s.earningRepo.Create(ctx, &domain.Earning{
		ID: newID(), DriverID: trip.DriverID, TripID: trip.ID, Amount: trip.DriverEarnings, CreatedAt: time.Now(),
	})

	// endTrip's external interface carries no rating input; a zero delta
	// still advances the rider's lifetime ride count without biasing
	// their average rating. A dedicated rate-trip operation would supply
	// a real delta.
	_ = s.riderRepo.CompleteRide(ctx, trip.RiderID, 0)

	_ = s.rideEventRepo.Create(ctx, &domain.RideEvent{
		ID: newID(), RideID: trip.RideID, Type: domain.RideEventTripCompleted, CreatedAt: time.Now(),
	})

	ride, err := s.rideRepo.GetByID(ctx, trip.RideID)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		_ = s.bus.Publish(ctx, bus.RideTopic(trip.RideID), bus.RideStatusEvent{Status: string(domain.RideStatusCompleted), DriverID: trip.DriverID})
	}
	if s.notification != nil {
		_ = s.notification.NotifyTripCompleted(ctx, ride, trip.FinalFare)
	}

	var receipt *domain.Receipt
	if s.receipt != nil {
		receipt, err = s.receipt.GenerateReceipt(ctx, trip, ride, nil)
		if err != nil {
			return nil, err
		}
	}

	return &EndTripResult{Trip: trip, Receipt: receipt}, nil
}
