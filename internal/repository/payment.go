package repository

import (
	"context"

	"ride-engine/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByTripID(ctx context.Context, tripID string) (*domain.Payment, error)
	// GetByIdempotencyKey returns nil (not ErrNotFound) when no payment
	// exists with the given key.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
}

// RefundRepository defines the persistence operations for refunds.
type RefundRepository interface {
	Create(ctx context.Context, refund *domain.Refund) error
	GetByPaymentID(ctx context.Context, paymentID string) ([]*domain.Refund, error)
}

// EarningRepository defines the persistence operations for driver earnings.
type EarningRepository interface {
	Create(ctx context.Context, earning *domain.Earning) error
}
