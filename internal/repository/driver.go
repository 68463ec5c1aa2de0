package repository

import (
	"context"

	"ride-engine/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	Create(ctx context.Context, driver *domain.Driver) error
	GetByID(ctx context.Context, id string) (*domain.Driver, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Driver, error)
	GetAll(ctx context.Context) ([]*domain.Driver, error)
	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error
	// UpdateStatusIfCurrent performs a compare-and-set status update,
	// succeeding only when the driver's current status matches expected.
	// Used by the matching transaction to guarantee a driver is assigned
	// to at most one ride.
	UpdateStatusIfCurrent(ctx context.Context, id string, expected, next domain.DriverStatus) (bool, error)
	UpdateLocation(ctx context.Context, id string, lat, lng float64) error
	IncrementTotalTrips(ctx context.Context, id string) error
}
