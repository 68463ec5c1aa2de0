package repository

import (
	"context"

	"ride-engine/internal/domain"
)

// RiderRepository defines the persistence operations for riders.
type RiderRepository interface {
	Create(ctx context.Context, rider *domain.Rider) error
	GetByID(ctx context.Context, id string) (*domain.Rider, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Rider, error)
	// CompleteRide bumps rating and lifetime ride count; called only by
	// the Ride Engine when a trip completes.
	CompleteRide(ctx context.Context, id string, ratingDelta float64) error
}
