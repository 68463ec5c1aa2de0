package tests

import (
	"context"
	"testing"
	"time"

	"ride-engine/internal/domain"
	"ride-engine/internal/service"
)

func TestSurgeServiceDefaultsToOneWhenNoZoneActive(t *testing.T) {
	t.Parallel()
	surgeZoneRepo := NewMockSurgeZoneRepository()
	surge := service.NewSurgeService(surgeZoneRepo)

	if got := surge.GetMultiplier(context.Background(), "default", 1, 1); got != 1.0 {
		t.Errorf("GetMultiplier() with no active zone = %v, want 1.0", got)
	}
}

func TestSurgeServiceReturnsActiveZoneMultiplier(t *testing.T) {
	t.Parallel()
	surgeZoneRepo := NewMockSurgeZoneRepository()
	surgeZoneRepo.SetZone(&domain.SurgeZone{Region: "default", Multiplier: 1.8, Active: true})
	surge := service.NewSurgeService(surgeZoneRepo)

	if got := surge.GetMultiplier(context.Background(), "default", 1, 1); got != 1.8 {
		t.Errorf("GetMultiplier() = %v, want 1.8", got)
	}
}

func TestSurgeServiceIgnoresInactiveZone(t *testing.T) {
	t.Parallel()
	surgeZoneRepo := NewMockSurgeZoneRepository()
	surgeZoneRepo.SetZone(&domain.SurgeZone{Region: "default", Multiplier: 3.0, Active: false})
	surge := service.NewSurgeService(surgeZoneRepo)

	if got := surge.GetMultiplier(context.Background(), "default", 1, 1); got != 1.0 {
		t.Errorf("GetMultiplier() with inactive zone = %v, want 1.0", got)
	}
}

func TestReceiptServiceGenerateReceipt(t *testing.T) {
	t.Parallel()
	receiptRepo := NewMockReceiptRepository()
	receiptService := service.NewReceiptService(receiptRepo)

	trip := &domain.Trip{
		ID: "trip-1", DriverID: "driver-1", RiderID: "rider-1",
		BaseFare: 5, DistanceFare: 10, TimeFare: 2, SurgeMultiplier: 1.2, SurgeAmount: 1,
		FinalFare: 18, StartedAt: time.Now().Add(-20 * time.Minute), EndedAt: time.Now(),
	}
	ride := &domain.Ride{ID: "ride-1", PickupLat: 1, PickupLng: 1, DropoffLat: 2, DropoffLng: 2, PaymentMethod: domain.PaymentMethodCard}
	payment := &domain.Payment{Status: domain.PaymentStatusCompleted}

	receipt, err := receiptService.GenerateReceipt(context.Background(), trip, ride, payment)
	if err != nil {
		t.Fatalf("GenerateReceipt() error = %v", err)
	}
	if receipt.FinalFare != 18 {
		t.Errorf("FinalFare = %v, want 18", receipt.FinalFare)
	}
	if receipt.Tax != 3.24 {
		t.Errorf("Tax = %v, want 3.24 (18 * 0.18)", receipt.Tax)
	}
	if receipt.PaymentStatus != domain.PaymentStatusCompleted {
		t.Errorf("PaymentStatus = %s, want COMPLETED", receipt.PaymentStatus)
	}

	stored, err := receiptRepo.GetByTripID(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("GetByTripID() error = %v", err)
	}
	if stored.ID != receipt.ID {
		t.Errorf("stored receipt ID = %s, want %s", stored.ID, receipt.ID)
	}
}

func TestReceiptServiceRejectsNilTripOrRide(t *testing.T) {
	t.Parallel()
	receiptService := service.NewReceiptService(NewMockReceiptRepository())

	if _, err := receiptService.GenerateReceipt(context.Background(), nil, &domain.Ride{}, nil); err != service.ErrInvalidTripID {
		t.Errorf("GenerateReceipt(nil trip) error = %v, want ErrInvalidTripID", err)
	}
	if _, err := receiptService.GenerateReceipt(context.Background(), &domain.Trip{}, nil, nil); err != service.ErrInvalidTripID {
		t.Errorf("GenerateReceipt(nil ride) error = %v, want ErrInvalidTripID", err)
	}
}

func TestReceiptServiceDefaultsPaymentStatusWhenPaymentNil(t *testing.T) {
	t.Parallel()
	receiptService := service.NewReceiptService(NewMockReceiptRepository())

	receipt, err := receiptService.GenerateReceipt(context.Background(), &domain.Trip{ID: "t1"}, &domain.Ride{ID: "r1"}, nil)
	if err != nil {
		t.Fatalf("GenerateReceipt() error = %v", err)
	}
	if receipt.PaymentStatus != domain.PaymentStatusPending {
		t.Errorf("PaymentStatus with nil payment = %s, want PENDING", receipt.PaymentStatus)
	}
}

func TestNotificationServiceNotifyDriverMatched(t *testing.T) {
	t.Parallel()
	notificationRepo := NewMockNotificationRepository()
	notificationService := service.NewNotificationService(notificationRepo)

	ride := &domain.Ride{ID: "ride-1", RiderID: "rider-1", AssignedDriverID: "driver-1"}
	if err := notificationService.NotifyDriverMatched(context.Background(), ride); err != nil {
		t.Fatalf("NotifyDriverMatched() error = %v", err)
	}
	if notificationRepo.Count() != 1 {
		t.Fatalf("notification count = %d, want 1", notificationRepo.Count())
	}
	n := notificationRepo.Last()
	if n.RecipientID != "rider-1" || n.Type != domain.NotificationDriverMatched {
		t.Errorf("notification = %+v, want recipient rider-1 type DRIVER_MATCHED", n)
	}
}

func TestNotificationServiceNotifyRideCancelledTargetsOtherParty(t *testing.T) {
	t.Parallel()
	notificationRepo := NewMockNotificationRepository()
	notificationService := service.NewNotificationService(notificationRepo)

	ride := &domain.Ride{ID: "ride-1", RiderID: "rider-1", AssignedDriverID: "driver-1"}

	if err := notificationService.NotifyRideCancelled(context.Background(), ride, domain.CancelledByRider, "changed my mind"); err != nil {
		t.Fatalf("NotifyRideCancelled() error = %v", err)
	}
	n := notificationRepo.Last()
	if n.RecipientID != "driver-1" || n.RecipientRole != domain.RecipientDriver {
		t.Errorf("rider-cancelled notification went to %s (%s), want driver-1 (driver)", n.RecipientID, n.RecipientRole)
	}

	if err := notificationService.NotifyRideCancelled(context.Background(), ride, domain.CancelledByDriver, "car trouble"); err != nil {
		t.Fatalf("NotifyRideCancelled() error = %v", err)
	}
	n = notificationRepo.Last()
	if n.RecipientID != "rider-1" || n.RecipientRole != domain.RecipientRider {
		t.Errorf("driver-cancelled notification went to %s (%s), want rider-1 (rider)", n.RecipientID, n.RecipientRole)
	}
}

func TestNotificationServiceSkipsWhenNoCounterparty(t *testing.T) {
	t.Parallel()
	notificationRepo := NewMockNotificationRepository()
	notificationService := service.NewNotificationService(notificationRepo)

	ride := &domain.Ride{ID: "ride-1", RiderID: "rider-1", AssignedDriverID: ""}
	if err := notificationService.NotifyRideCancelled(context.Background(), ride, domain.CancelledByRider, "no driver yet"); err != nil {
		t.Fatalf("NotifyRideCancelled() error = %v", err)
	}
	if notificationRepo.Count() != 0 {
		t.Errorf("notification count = %d, want 0 when no driver was assigned", notificationRepo.Count())
	}
}
