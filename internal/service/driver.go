package service

import (
	"context"
	"time"

	"ride-engine/internal/domain"
	"ride-engine/internal/geo"
	"ride-engine/internal/location"
	"ride-engine/internal/redis"
	"ride-engine/internal/repository"
)

// driverLookup adapts the repository layer to location.DriverLookup: the
// pipeline needs to know a driver's current status and, if ON_RIDE,
// which ride to fan location updates out to.
type driverLookup struct {
	driverRepo repository.DriverRepository
	tripRepo   repository.TripRepository
}

func (l *driverLookup) CurrentStatus(ctx context.Context, driverID string) (domain.DriverStatus, string, bool) {
	driver, err := l.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return "", "", false
	}
	if driver.Status != domain.DriverStatusOnRide {
		return driver.Status, "", true
	}
	trip, err := l.tripRepo.GetActiveByDriverID(ctx, driverID)
	if err != nil || trip == nil {
		return driver.Status, "", true
	}
	return driver.Status, trip.RideID, true
}

// NewDriverLookup builds the location.DriverLookup adapter shared by the
// server's Pipeline construction.
func NewDriverLookup(driverRepo repository.DriverRepository, tripRepo repository.TripRepository) location.DriverLookup {
	return &driverLookup{driverRepo: driverRepo, tripRepo: tripRepo}
}

// DriverService handles driver profile, availability, and location
// operations. Location updates are delegated to the Location Ingest
// Pipeline; this service only owns the availability state machine and
// the Position Cache mirror.
type DriverService struct {
	pipeline *location.Pipeline
	geo      *geo.Index
	position *redis.PositionCache
	cache    *redis.CacheStore
	driver   repository.DriverRepository
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	pipeline *location.Pipeline,
	geoIndex *geo.Index,
	position *redis.PositionCache,
	cache *redis.CacheStore,
	driverRepo repository.DriverRepository,
) *DriverService {
	return &DriverService{pipeline: pipeline, geo: geoIndex, position: position, cache: cache, driver: driverRepo}
}

// warmDriverCache writes through the driver cache entry after a status
// or location change, the way the teacher's UpdateLocation keeps it warm.
func (s *DriverService) warmDriverCache(ctx context.Context, driver *domain.Driver) {
	if s.cache == nil || driver == nil {
		return
	}
	_ = s.cache.SetDriver(ctx, &redis.CachedDriver{
		ID: driver.ID, Name: driver.Name, Phone: driver.Phone,
		Status: string(driver.Status), Tier: string(driver.Tier),
	})
}

// UpdateLocationRequest carries one raw position ping.
type UpdateLocationRequest struct {
	DriverID string
	Lat      float64
	Lng      float64
	Heading  *float64
	Speed    *float64
	Accuracy *float64
}

// UpdateLocation feeds a ping into the ingest pipeline and mirrors it in
// the Position Cache. It does not itself change driver status; that is
// UpdateAvailability's job.
func (s *DriverService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	if req.DriverID == "" {
		return ErrInvalidDriverID
	}
	if !isValidLatitude(req.Lat) || !isValidLongitude(req.Lng) {
		return ErrInvalidLocation
	}

	now := time.Now()
	if err := s.pipeline.RecordPing(ctx, location.Ping{
		DriverID: req.DriverID, Lat: req.Lat, Lng: req.Lng,
		Heading: req.Heading, Speed: req.Speed, Accuracy: req.Accuracy, Ts: now.UnixNano(),
	}); err != nil {
		return err
	}

	if err := s.driver.UpdateLocation(ctx, req.DriverID, req.Lat, req.Lng); err != nil && err != repository.ErrNotFound {
		return err
	}

	if s.position != nil {
		_ = s.position.Set(ctx, redis.DriverPosition{
			DriverID: req.DriverID, Lat: req.Lat, Lng: req.Lng, UpdatedAt: now.UnixNano(),
		})
	}

	if driver, err := s.driver.GetByID(ctx, req.DriverID); err == nil {
		s.warmDriverCache(ctx, driver)
	}

	return nil
}

// UpdateAvailability transitions a driver between OFFLINE, AVAILABLE, and
// BREAK, keeping the Geo Index and Position Cache consistent: a driver
// becomes visible to matching only while AVAILABLE.
func (s *DriverService) UpdateAvailability(ctx context.Context, driverID string, status domain.DriverStatus) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	switch status {
	case domain.DriverStatusAvailable, domain.DriverStatusOffline, domain.DriverStatusBreak:
	default:
		return nil, ErrDriverNotAvailable
	}

	driver, err := s.driver.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver.Status == domain.DriverStatusOnRide {
		return nil, ErrDriverNotAvailable
	}

	if err := s.driver.UpdateStatus(ctx, driverID, status); err != nil {
		return nil, err
	}
	driver.Status = status

	if status == domain.DriverStatusAvailable {
		s.geo.Add(driverID, driver.LastLat, driver.LastLng, geo.Meta{Tier: string(driver.Tier), Rating: driver.Rating}, time.Now().UnixNano())
	} else {
		s.geo.Remove(driverID)
		if s.position != nil {
			_ = s.position.Delete(ctx, driverID)
		}
	}
	s.warmDriverCache(ctx, driver)

	return driver, nil
}

// GetDriver returns a driver by ID.
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.driver.GetByID(ctx, driverID)
}
