package repository

import (
	"context"

	"ride-engine/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	GetByRideID(ctx context.Context, rideID string) (*domain.Trip, error)
	Update(ctx context.Context, trip *domain.Trip) error
	GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error)
}
