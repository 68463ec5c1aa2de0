package tests

import (
	"context"
	"testing"

	"ride-engine/internal/apperr"
	"ride-engine/internal/domain"
	"ride-engine/internal/geo"
	"ride-engine/internal/service"
)

// newRideServiceForTest wires a RideService with the infrastructure that
// CreateRide, GetRide, and ListRiderHistory actually exercise. lock, bus,
// and matching are left nil: none of those three methods touch them.
func newRideServiceForTest(t *testing.T) (*service.RideService, *MockRideRepository, *MockPricingConfigRepository, *MockSurgeZoneRepository) {
	t.Helper()
	rideRepo := NewMockRideRepository()
	tripRepo := NewMockTripRepository()
	driverRepo := NewMockDriverRepository()
	rideEventRepo := NewMockRideEventRepository()
	pricingRepo := NewMockPricingConfigRepository()
	surgeZoneRepo := NewMockSurgeZoneRepository()
	surge := service.NewSurgeService(surgeZoneRepo)

	rideService := service.NewRideService(
		geo.New(), nil, nil, nil,
		rideRepo, tripRepo, driverRepo, rideEventRepo, pricingRepo,
		surge, nil, nil,
	)
	return rideService, rideRepo, pricingRepo, surgeZoneRepo
}

func TestCreateRideValidation(t *testing.T) {
	t.Parallel()
	rideService, _, _, _ := newRideServiceForTest(t)

	cases := []struct {
		name string
		req  service.CreateRideRequest
		want error
	}{
		{"missing rider id", service.CreateRideRequest{PickupLat: 1, DropoffLat: 1}, service.ErrInvalidRiderID},
		{"bad pickup lat", service.CreateRideRequest{RiderID: "r1", PickupLat: 999}, service.ErrInvalidPickupLocation},
		{"bad dropoff lng", service.CreateRideRequest{RiderID: "r1", DropoffLng: -999}, service.ErrInvalidDestinationLocation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rideService.CreateRide(context.Background(), tc.req)
			if err != tc.want {
				t.Errorf("CreateRide(%+v) error = %v, want %v", tc.req, err, tc.want)
			}
		})
	}
}

func TestCreateRideSuccess(t *testing.T) {
	t.Parallel()
	rideService, rideRepo, _, _ := newRideServiceForTest(t)

	req := service.CreateRideRequest{
		RiderID: "rider-1", PickupLat: 37.7749, PickupLng: -122.4194,
		DropoffLat: 37.7849, DropoffLng: -122.4094,
	}
	ride, err := rideService.CreateRide(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateRide() error = %v", err)
	}
	if ride.Status != domain.RideStatusSearching {
		t.Errorf("Status = %s, want SEARCHING", ride.Status)
	}
	if ride.PaymentMethod != domain.PaymentMethodCash {
		t.Errorf("PaymentMethod = %s, want default CASH", ride.PaymentMethod)
	}
	if ride.Region != "default" {
		t.Errorf("Region = %s, want default", ride.Region)
	}
	if rideRepo.CreateCallCount != 1 {
		t.Errorf("rideRepo.Create called %d times, want 1", rideRepo.CreateCallCount)
	}
}

func TestCreateRideIdempotentReplay(t *testing.T) {
	t.Parallel()
	rideService, _, _, _ := newRideServiceForTest(t)

	req := service.CreateRideRequest{
		RiderID: "rider-1", PickupLat: 1, PickupLng: 1, DropoffLat: 2, DropoffLng: 2,
		IdempotencyKey: "key-123",
	}
	first, err := rideService.CreateRide(context.Background(), req)
	if err != nil {
		t.Fatalf("first CreateRide() error = %v", err)
	}
	second, err := rideService.CreateRide(context.Background(), req)
	if err != nil {
		t.Fatalf("second CreateRide() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("replayed call created a new ride: first=%s second=%s", first.ID, second.ID)
	}
}

func TestCreateRideUsesPricingConfigWhenPresent(t *testing.T) {
	t.Parallel()
	rideService, _, pricingRepo, _ := newRideServiceForTest(t)

	pricingRepo.Set("default", domain.DriverTierStandard, &domain.PricingConfig{
		Region: "default", Tier: domain.DriverTierStandard,
		BaseFare: 5, PerKmRate: 2, PerMinRate: 0.5, Active: true,
	})

	req := service.CreateRideRequest{
		RiderID: "rider-1", PickupLat: 0, PickupLng: 0, DropoffLat: 0, DropoffLng: 0,
		Tier: domain.DriverTierStandard,
	}
	ride, err := rideService.CreateRide(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateRide() error = %v", err)
	}
	// Zero distance trip: estimated fare should equal the base fare alone.
	if ride.EstimatedFare != 5 {
		t.Errorf("EstimatedFare = %v, want 5 (base fare only, zero distance)", ride.EstimatedFare)
	}
}

func TestCreateRideAppliesSurgeMultiplier(t *testing.T) {
	t.Parallel()
	rideService, _, _, surgeZoneRepo := newRideServiceForTest(t)
	surgeZoneRepo.SetZone(&domain.SurgeZone{Region: "default", Multiplier: 2.0, Active: true})

	req := service.CreateRideRequest{RiderID: "rider-1", PickupLat: 1, PickupLng: 1, DropoffLat: 1, DropoffLng: 1}
	ride, err := rideService.CreateRide(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateRide() error = %v", err)
	}
	if ride.SurgeMultiplier != 2.0 {
		t.Errorf("SurgeMultiplier = %v, want 2.0", ride.SurgeMultiplier)
	}
}

func TestGetRide(t *testing.T) {
	t.Parallel()
	rideService, rideRepo, _, _ := newRideServiceForTest(t)

	if _, err := rideService.GetRide(context.Background(), ""); err != service.ErrInvalidRideID {
		t.Errorf("GetRide(\"\") error = %v, want ErrInvalidRideID", err)
	}

	rideRepo.AddRide(&domain.Ride{ID: "ride-1", RiderID: "rider-1", Status: domain.RideStatusSearching})
	ride, err := rideService.GetRide(context.Background(), "ride-1")
	if err != nil {
		t.Fatalf("GetRide() error = %v", err)
	}
	if ride.ID != "ride-1" {
		t.Errorf("GetRide() returned ride %s, want ride-1", ride.ID)
	}

	if _, err := rideService.GetRide(context.Background(), "missing"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("GetRide(missing) error = %v, want NotFound kind", err)
	}
}

func TestListRiderHistory(t *testing.T) {
	t.Parallel()
	rideService, rideRepo, _, _ := newRideServiceForTest(t)

	if _, err := rideService.ListRiderHistory(context.Background(), "", 1, 10); err != service.ErrInvalidRiderID {
		t.Errorf("ListRiderHistory(\"\") error = %v, want ErrInvalidRiderID", err)
	}

	rideRepo.AddRide(&domain.Ride{ID: "r1", RiderID: "rider-1"})
	rideRepo.AddRide(&domain.Ride{ID: "r2", RiderID: "rider-1"})
	rideRepo.AddRide(&domain.Ride{ID: "r3", RiderID: "rider-2"})

	history, err := rideService.ListRiderHistory(context.Background(), "rider-1", 1, 10)
	if err != nil {
		t.Fatalf("ListRiderHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Errorf("ListRiderHistory() returned %d rides, want 2", len(history))
	}
}
