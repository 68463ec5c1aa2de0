package tests

import (
	"context"
	"testing"
	"time"

	"ride-engine/internal/domain"
	"ride-engine/internal/geo"
	"ride-engine/internal/location"
	"ride-engine/internal/service"
)

// newDriverServiceForTest wires a DriverService against a real geo.Index
// and a real location.Pipeline, both backed entirely by in-memory mocks,
// so the availability state machine and the ingest path run exactly as
// they would in production without needing Redis or Postgres.
func newDriverServiceForTest(t *testing.T) (*service.DriverService, *MockDriverRepository, *geo.Index) {
	t.Helper()
	driverRepo := NewMockDriverRepository()
	locationRepo := NewMockDriverLocationRepository()
	lookup := NewMockDriverLookup()
	geoIndex := geo.New()
	pipeline := location.New(location.Config{BatchInterval: time.Hour}, geoIndex, locationRepo, lookup, nil)
	t.Cleanup(func() { pipeline.Close() })

	driverService := service.NewDriverService(pipeline, geoIndex, nil, nil, driverRepo)
	return driverService, driverRepo, geoIndex
}

func TestUpdateAvailabilityRejectsInvalidStatus(t *testing.T) {
	t.Parallel()
	driverService, driverRepo, _ := newDriverServiceForTest(t)
	driverRepo.AddDriver(&domain.Driver{ID: "d1", Status: domain.DriverStatusOffline})

	if _, err := driverService.UpdateAvailability(context.Background(), "d1", domain.DriverStatusOnRide); err != service.ErrDriverNotAvailable {
		t.Errorf("UpdateAvailability(ON_RIDE) error = %v, want ErrDriverNotAvailable", err)
	}
}

func TestUpdateAvailabilityRejectsWhileOnRide(t *testing.T) {
	t.Parallel()
	driverService, driverRepo, _ := newDriverServiceForTest(t)
	driverRepo.AddDriver(&domain.Driver{ID: "d1", Status: domain.DriverStatusOnRide})

	if _, err := driverService.UpdateAvailability(context.Background(), "d1", domain.DriverStatusBreak); err != service.ErrDriverNotAvailable {
		t.Errorf("UpdateAvailability() while ON_RIDE error = %v, want ErrDriverNotAvailable", err)
	}
}

func TestUpdateAvailabilityAddsToGeoIndexWhenAvailable(t *testing.T) {
	t.Parallel()
	driverService, driverRepo, geoIndex := newDriverServiceForTest(t)
	driverRepo.AddDriver(&domain.Driver{ID: "d1", Status: domain.DriverStatusOffline, LastLat: 10, LastLng: 20, Tier: domain.DriverTierStandard})

	driver, err := driverService.UpdateAvailability(context.Background(), "d1", domain.DriverStatusAvailable)
	if err != nil {
		t.Fatalf("UpdateAvailability() error = %v", err)
	}
	if driver.Status != domain.DriverStatusAvailable {
		t.Errorf("Status = %s, want AVAILABLE", driver.Status)
	}
	if _, _, ok := geoIndex.Position("d1"); !ok {
		t.Error("driver should be present in the geo index after becoming AVAILABLE")
	}
}

func TestUpdateAvailabilityRemovesFromGeoIndexWhenOffline(t *testing.T) {
	t.Parallel()
	driverService, driverRepo, geoIndex := newDriverServiceForTest(t)
	driverRepo.AddDriver(&domain.Driver{ID: "d1", Status: domain.DriverStatusAvailable, LastLat: 1, LastLng: 1})
	geoIndex.Add("d1", 1, 1, geo.Meta{}, 1)

	if _, err := driverService.UpdateAvailability(context.Background(), "d1", domain.DriverStatusOffline); err != nil {
		t.Fatalf("UpdateAvailability() error = %v", err)
	}
	if _, _, ok := geoIndex.Position("d1"); ok {
		t.Error("driver should be removed from the geo index after going OFFLINE")
	}
}

func TestUpdateLocationValidation(t *testing.T) {
	t.Parallel()
	driverService, _, _ := newDriverServiceForTest(t)

	if err := driverService.UpdateLocation(context.Background(), service.UpdateLocationRequest{DriverID: "", Lat: 1, Lng: 1}); err != service.ErrInvalidDriverID {
		t.Errorf("UpdateLocation() with empty driver id error = %v, want ErrInvalidDriverID", err)
	}
	if err := driverService.UpdateLocation(context.Background(), service.UpdateLocationRequest{DriverID: "d1", Lat: 999, Lng: 1}); err != service.ErrInvalidLocation {
		t.Errorf("UpdateLocation() with bad lat error = %v, want ErrInvalidLocation", err)
	}
}

func TestUpdateLocationSuccess(t *testing.T) {
	t.Parallel()
	driverService, driverRepo, _ := newDriverServiceForTest(t)
	driverRepo.AddDriver(&domain.Driver{ID: "d1", Status: domain.DriverStatusAvailable})

	err := driverService.UpdateLocation(context.Background(), service.UpdateLocationRequest{DriverID: "d1", Lat: 12, Lng: 34})
	if err != nil {
		t.Fatalf("UpdateLocation() error = %v", err)
	}
	driver, _ := driverRepo.GetByID(context.Background(), "d1")
	if driver.LastLat != 12 || driver.LastLng != 34 {
		t.Errorf("driver position = (%v, %v), want (12, 34)", driver.LastLat, driver.LastLng)
	}
}

func TestUpdateLocationToleratesUnknownDriver(t *testing.T) {
	t.Parallel()
	driverService, _, _ := newDriverServiceForTest(t)

	// No driver row exists for d1; the repository update returns
	// ErrNotFound, which UpdateLocation must swallow since the ingest
	// pipeline's position feed should never fail on a profile lookup.
	if err := driverService.UpdateLocation(context.Background(), service.UpdateLocationRequest{DriverID: "d1", Lat: 1, Lng: 1}); err != nil {
		t.Errorf("UpdateLocation() for unknown driver error = %v, want nil", err)
	}
}
