package service

import (
	"context"
	"time"

	"ride-engine/internal/domain"
	"ride-engine/internal/pricing"
	"ride-engine/internal/repository"
)

// ReceiptService builds the rider-facing summary of a completed trip.
// Unlike the trip's own fare computation, which happens once at endTrip,
// GenerateReceipt only assembles already-derived numbers; it never
// recomputes the fare.
type ReceiptService struct {
	receiptRepo repository.ReceiptRepository
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(receiptRepo repository.ReceiptRepository) *ReceiptService {
	return &ReceiptService{receiptRepo: receiptRepo}
}

// GenerateReceipt persists and returns the receipt for a completed trip.
// trip and ride must both be non-nil and the trip must already carry its
// derived fare components (i.e. endTrip has run).
func (s *ReceiptService) GenerateReceipt(ctx context.Context, trip *domain.Trip, ride *domain.Ride, payment *domain.Payment) (*domain.Receipt, error) {
	if trip == nil || ride == nil {
		return nil, ErrInvalidTripID
	}

	paymentStatus := domain.PaymentStatusPending
	if payment != nil {
		paymentStatus = payment.Status
	}

	receipt := &domain.Receipt{
		ID:              newID(),
		TripID:          trip.ID,
		RideID:          ride.ID,
		DriverID:        trip.DriverID,
		RiderID:         trip.RiderID,
		PickupLat:       ride.PickupLat,
		PickupLng:       ride.PickupLng,
		DropoffLat:      ride.DropoffLat,
		DropoffLng:      ride.DropoffLng,
		BaseFare:        trip.BaseFare,
		DistanceFare:    trip.DistanceFare,
		TimeFare:        trip.TimeFare,
		SurgeMultiplier: trip.SurgeMultiplier,
		SurgeAmount:     trip.SurgeAmount,
		Discount:        trip.Discount,
		FinalFare:       trip.FinalFare,
		Tax:             pricing.Tax(trip.FinalFare),
		PaymentMethod:   ride.PaymentMethod,
		PaymentStatus:   paymentStatus,
		DistanceKm:      trip.ActualDistanceKm,
		Duration:        trip.EndedAt.Sub(trip.StartedAt),
		StartedAt:       trip.StartedAt,
		EndedAt:         trip.EndedAt,
		CreatedAt:       time.Now(),
	}

	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}
