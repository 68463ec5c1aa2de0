package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"ride-engine/internal/domain"
	"ride-engine/internal/repository"
)

// NotificationService writes durable notifications and logs them. In a
// full deployment this would also fan out to push/SMS/email providers;
// the core only owns persistence and the log line, per the transport
// boundary in the design notes.
type NotificationService struct {
	repo repository.NotificationRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) send(ctx context.Context, n *domain.Notification) error {
	n.ID = newID()
	n.CreatedAt = time.Now()
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	log.Printf("[NOTIFICATION] type=%s recipient=%s(%s) ride=%s message=%q",
		n.Type, n.RecipientRole, n.RecipientID, n.RideID, n.Message)
	return nil
}

// NotifyDriverMatched notifies the rider that a driver has been assigned.
func (s *NotificationService) NotifyDriverMatched(ctx context.Context, ride *domain.Ride) error {
	return s.send(ctx, &domain.Notification{
		RecipientID: ride.RiderID, RecipientRole: domain.RecipientRider, RideID: ride.ID,
		Type:    domain.NotificationDriverMatched,
		Message: fmt.Sprintf("Driver %s has been matched to your ride", ride.AssignedDriverID),
	})
}

// NotifyDriverArriving notifies the rider the driver is on the way.
func (s *NotificationService) NotifyDriverArriving(ctx context.Context, ride *domain.Ride) error {
	return s.send(ctx, &domain.Notification{
		RecipientID: ride.RiderID, RecipientRole: domain.RecipientRider, RideID: ride.ID,
		Type: domain.NotificationDriverArriving, Message: "Your driver is on the way",
	})
}

// NotifyDriverArrived notifies the rider the driver has arrived, with the
// start OTP to share with the driver.
func (s *NotificationService) NotifyDriverArrived(ctx context.Context, ride *domain.Ride, otp string) error {
	return s.send(ctx, &domain.Notification{
		RecipientID: ride.RiderID, RecipientRole: domain.RecipientRider, RideID: ride.ID,
		Type: domain.NotificationDriverArrived, Message: fmt.Sprintf("Your driver has arrived. Start OTP: %s", otp),
	})
}

// NotifyTripStarted notifies the rider the trip is underway.
func (s *NotificationService) NotifyTripStarted(ctx context.Context, ride *domain.Ride) error {
	return s.send(ctx, &domain.Notification{
		RecipientID: ride.RiderID, RecipientRole: domain.RecipientRider, RideID: ride.ID,
		Type: domain.NotificationTripStarted, Message: "Your trip has started",
	})
}

// NotifyTripCompleted notifies the rider the trip has ended with the
// final fare.
func (s *NotificationService) NotifyTripCompleted(ctx context.Context, ride *domain.Ride, finalFare float64) error {
	return s.send(ctx, &domain.Notification{
		RecipientID: ride.RiderID, RecipientRole: domain.RecipientRider, RideID: ride.ID,
		Type:    domain.NotificationTripCompleted,
		Message: fmt.Sprintf("Trip completed. Final fare: %.2f", finalFare),
	})
}

// NotifyRideCancelled notifies whichever party did not initiate the
// cancellation.
func (s *NotificationService) NotifyRideCancelled(ctx context.Context, ride *domain.Ride, cancelledBy domain.CancelledBy, reason string) error {
	recipientID := ride.RiderID
	role := domain.RecipientRider
	if cancelledBy == domain.CancelledByRider {
		recipientID = ride.AssignedDriverID
		role = domain.RecipientDriver
	}
	if recipientID == "" {
		return nil
	}
	return s.send(ctx, &domain.Notification{
		RecipientID: recipientID, RecipientRole: role, RideID: ride.ID,
		Type: domain.NotificationRideCancelled, Message: "Ride cancelled: " + reason,
	})
}

// NotifyNoDriversFound notifies the rider the matching loop exhausted its
// attempts.
func (s *NotificationService) NotifyNoDriversFound(ctx context.Context, ride *domain.Ride) error {
	return s.send(ctx, &domain.Notification{
		RecipientID: ride.RiderID, RecipientRole: domain.RecipientRider, RideID: ride.ID,
		Type: domain.NotificationNoDriversFound, Message: "No drivers were available near your pickup location",
	})
}

// NotifyPaymentSuccess notifies the rider of a completed charge.
func (s *NotificationService) NotifyPaymentSuccess(ctx context.Context, riderID string, payment *domain.Payment) error {
	return s.send(ctx, &domain.Notification{
		RecipientID: riderID, RecipientRole: domain.RecipientRider,
		Type:    domain.NotificationPaymentSuccess,
		Message: fmt.Sprintf("Payment of %.2f was successful", payment.Amount),
	})
}

// NotifyPaymentFailed notifies the rider of a failed charge.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, riderID string, payment *domain.Payment) error {
	return s.send(ctx, &domain.Notification{
		RecipientID: riderID, RecipientRole: domain.RecipientRider,
		Type:    domain.NotificationPaymentFailed,
		Message: fmt.Sprintf("Payment of %.2f failed: %s", payment.Amount, payment.FailureReason),
	})
}
