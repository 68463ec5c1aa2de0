package repository

import (
	"context"

	"ride-engine/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	Create(ctx context.Context, ride *domain.Ride) error
	GetByID(ctx context.Context, id string) (*domain.Ride, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Ride, error)
	GetAll(ctx context.Context) ([]*domain.Ride, error)
	ListByRider(ctx context.Context, riderID string, page, limit int) ([]*domain.Ride, error)
	Update(ctx context.Context, ride *domain.Ride) error
	// UpdateStatusIfCurrent performs a compare-and-set status transition,
	// succeeding only if the ride's current status equals expected. Used
	// by the matching transaction so a ride is never matched twice.
	UpdateStatusIfCurrent(ctx context.Context, id string, expected, next domain.RideStatus) (bool, error)
}
