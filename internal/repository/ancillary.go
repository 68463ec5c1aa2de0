package repository

import (
	"context"

	"ride-engine/internal/domain"
)

// ReceiptRepository defines the persistence operations for receipts.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *domain.Receipt) error
	GetByTripID(ctx context.Context, tripID string) (*domain.Receipt, error)
}

// NotificationRepository defines the persistence operations for
// notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error)
}

// RideEventRepository defines the persistence operations for the ride
// audit log.
type RideEventRepository interface {
	Create(ctx context.Context, event *domain.RideEvent) error
	ListByRideID(ctx context.Context, rideID string) ([]*domain.RideEvent, error)
}

// PricingConfigRepository defines the persistence operations for pricing
// configs. The core only reads active rows; nothing in the core mutates
// pricing.
type PricingConfigRepository interface {
	GetActive(ctx context.Context, region string, tier domain.RideTier) (*domain.PricingConfig, error)
}

// SurgeZoneRepository defines the persistence operations for surge
// zones. GetActiveForPickup deliberately does not test pickup coordinates
// against the zone polygon — per design notes, it returns any active zone
// as a naive house-keeping default.
type SurgeZoneRepository interface {
	GetActiveForPickup(ctx context.Context, region string, pickupLat, pickupLng float64) (*domain.SurgeZone, error)
}

// DriverLocationRepository persists batched location pings.
type DriverLocationRepository interface {
	// InsertBatch writes the whole batch as one batched insert,
	// preserving per-driver ordering.
	InsertBatch(ctx context.Context, pings []DriverLocationPing) error
}

// DriverLocationPing is one persisted position sample.
type DriverLocationPing struct {
	DriverID  string
	Lat       float64
	Lng       float64
	Heading   *float64
	Speed     *float64
	Accuracy  *float64
	Timestamp int64 // unix nano, preserves send order
}
