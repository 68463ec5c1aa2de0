package tests

import (
	"context"
	"testing"

	"ride-engine/internal/domain"
	"ride-engine/internal/service"
)

func newPaymentServiceForTest() (*service.PaymentService, *MockPaymentRepository, *MockTripRepository, *MockPSP) {
	paymentRepo := NewMockPaymentRepository()
	refundRepo := NewMockRefundRepository()
	tripRepo := NewMockTripRepository()
	psp := NewMockPSP()
	notification := service.NewNotificationService(NewMockNotificationRepository())

	paymentService := service.NewPaymentService(paymentRepo, refundRepo, tripRepo, nil, psp, notification)
	return paymentService, paymentRepo, tripRepo, psp
}

func TestProcessPaymentRequiresCompletedTrip(t *testing.T) {
	t.Parallel()
	paymentService, _, tripRepo, _ := newPaymentServiceForTest()

	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", Status: domain.TripStatusStarted})
	if _, err := paymentService.ProcessPayment(context.Background(), "trip-1", domain.PaymentMethodCard, ""); err != service.ErrTripNotCompleted {
		t.Errorf("ProcessPayment() error = %v, want ErrTripNotCompleted", err)
	}

	if _, err := paymentService.ProcessPayment(context.Background(), "", domain.PaymentMethodCard, ""); err != service.ErrInvalidTripID {
		t.Errorf("ProcessPayment(\"\") error = %v, want ErrInvalidTripID", err)
	}
}

func TestProcessPaymentSuccess(t *testing.T) {
	t.Parallel()
	paymentService, paymentRepo, tripRepo, psp := newPaymentServiceForTest()

	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", RiderID: "rider-1", Status: domain.TripStatusCompleted, FinalFare: 42.50})

	payment, err := paymentService.ProcessPayment(context.Background(), "trip-1", domain.PaymentMethodUPI, "")
	if err != nil {
		t.Fatalf("ProcessPayment() error = %v", err)
	}
	if payment.Status != domain.PaymentStatusCompleted {
		t.Errorf("Status = %s, want COMPLETED", payment.Status)
	}
	if payment.Amount != 42.50 {
		t.Errorf("Amount = %v, want 42.50", payment.Amount)
	}
	if payment.PaymentMethod != domain.PaymentMethodUPI {
		t.Errorf("PaymentMethod = %s, want UPI (the rider-selected method, not the CASH default)", payment.PaymentMethod)
	}
	if psp.ChargeCallCount != 1 {
		t.Errorf("psp.Charge called %d times, want 1", psp.ChargeCallCount)
	}
	if paymentRepo.CreateCallCount != 1 {
		t.Errorf("paymentRepo.Create called %d times, want 1", paymentRepo.CreateCallCount)
	}
}

func TestProcessPaymentDefaultsToCashWhenMethodOmitted(t *testing.T) {
	t.Parallel()
	paymentService, _, tripRepo, _ := newPaymentServiceForTest()

	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", Status: domain.TripStatusCompleted, FinalFare: 10})
	payment, err := paymentService.ProcessPayment(context.Background(), "trip-1", "", "")
	if err != nil {
		t.Fatalf("ProcessPayment() error = %v", err)
	}
	if payment.PaymentMethod != domain.PaymentMethodCash {
		t.Errorf("PaymentMethod = %s, want CASH default when omitted", payment.PaymentMethod)
	}
}

func TestProcessPaymentReplaysExistingCompletedPayment(t *testing.T) {
	t.Parallel()
	paymentService, paymentRepo, tripRepo, psp := newPaymentServiceForTest()

	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", Status: domain.TripStatusCompleted, FinalFare: 10})
	existing := &domain.Payment{ID: "pay-1", TripID: "trip-1", Status: domain.PaymentStatusCompleted, Amount: 10}
	paymentRepo.Create(context.Background(), existing)
	paymentRepo.CreateCallCount = 0 // reset after seeding

	payment, err := paymentService.ProcessPayment(context.Background(), "trip-1", domain.PaymentMethodCard, "")
	if err != nil {
		t.Fatalf("ProcessPayment() error = %v", err)
	}
	if payment.ID != "pay-1" {
		t.Errorf("ProcessPayment() returned %s, want replay of pay-1", payment.ID)
	}
	if psp.ChargeCallCount != 0 {
		t.Errorf("psp.Charge called %d times, want 0 (should have replayed)", psp.ChargeCallCount)
	}
	if paymentRepo.CreateCallCount != 0 {
		t.Errorf("paymentRepo.Create called %d times, want 0", paymentRepo.CreateCallCount)
	}
}

func TestRetryPayment(t *testing.T) {
	t.Parallel()
	paymentService, paymentRepo, tripRepo, psp := newPaymentServiceForTest()

	tripRepo.AddTrip(&domain.Trip{ID: "trip-1", Status: domain.TripStatusCompleted, FinalFare: 20})
	psp.SetFailure(true, nil)
	payment, err := paymentService.ProcessPayment(context.Background(), "trip-1", domain.PaymentMethodCard, "")
	if err != nil {
		t.Fatalf("ProcessPayment() error = %v", err)
	}
	if payment.Status != domain.PaymentStatusFailed {
		t.Fatalf("Status = %s, want FAILED", payment.Status)
	}
	paymentRepo.Update(context.Background(), payment)

	psp.SetFailure(false, nil)
	retried, err := paymentService.RetryPayment(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("RetryPayment() error = %v", err)
	}
	if retried.Status != domain.PaymentStatusCompleted {
		t.Errorf("Status after successful retry = %s, want COMPLETED", retried.Status)
	}
}

func TestRetryPaymentRejectsNonFailedPayment(t *testing.T) {
	t.Parallel()
	paymentService, paymentRepo, _, _ := newPaymentServiceForTest()

	payment := &domain.Payment{ID: "pay-1", Status: domain.PaymentStatusCompleted, MaxAttempts: 3}
	paymentRepo.Create(context.Background(), payment)

	if _, err := paymentService.RetryPayment(context.Background(), "pay-1"); err != service.ErrPaymentNotFailed {
		t.Errorf("RetryPayment() error = %v, want ErrPaymentNotFailed", err)
	}
}

func TestRetryPaymentRejectsExceededAttempts(t *testing.T) {
	t.Parallel()
	paymentService, paymentRepo, _, _ := newPaymentServiceForTest()

	payment := &domain.Payment{ID: "pay-1", Status: domain.PaymentStatusFailed, Attempts: 3, MaxAttempts: 3}
	paymentRepo.Create(context.Background(), payment)

	if _, err := paymentService.RetryPayment(context.Background(), "pay-1"); err != service.ErrPaymentAttemptsExceeded {
		t.Errorf("RetryPayment() error = %v, want ErrPaymentAttemptsExceeded", err)
	}
}

func TestGetPayment(t *testing.T) {
	t.Parallel()
	paymentService, paymentRepo, _, _ := newPaymentServiceForTest()

	if _, err := paymentService.GetPayment(context.Background(), ""); err != service.ErrInvalidPaymentID {
		t.Errorf("GetPayment(\"\") error = %v, want ErrInvalidPaymentID", err)
	}

	paymentRepo.Create(context.Background(), &domain.Payment{ID: "pay-1", Amount: 5})
	payment, err := paymentService.GetPayment(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("GetPayment() error = %v", err)
	}
	if payment.ID != "pay-1" {
		t.Errorf("GetPayment() returned %s, want pay-1", payment.ID)
	}
}

func TestRefund(t *testing.T) {
	t.Parallel()
	paymentService, paymentRepo, _, _ := newPaymentServiceForTest()

	payment := &domain.Payment{ID: "pay-1", Status: domain.PaymentStatusCompleted, Amount: 100}
	paymentRepo.Create(context.Background(), payment)

	if _, err := paymentService.Refund(context.Background(), "pay-1", 1000, "too much"); err != service.ErrRefundExceedsPayment {
		t.Errorf("Refund(1000) error = %v, want ErrRefundExceedsPayment", err)
	}

	refund, err := paymentService.Refund(context.Background(), "pay-1", 40, "rider complaint")
	if err != nil {
		t.Fatalf("Refund() error = %v", err)
	}
	if refund.Amount != 40 {
		t.Errorf("Refund amount = %v, want 40", refund.Amount)
	}
	updated, _ := paymentRepo.GetByID(context.Background(), "pay-1")
	if updated.Status != domain.PaymentStatusPartiallyRefunded {
		t.Errorf("Status after partial refund = %s, want PARTIALLY_REFUNDED", updated.Status)
	}
}

func TestRefundRequiresCompletedPayment(t *testing.T) {
	t.Parallel()
	paymentService, paymentRepo, _, _ := newPaymentServiceForTest()

	paymentRepo.Create(context.Background(), &domain.Payment{ID: "pay-1", Status: domain.PaymentStatusPending, Amount: 50})
	if _, err := paymentService.Refund(context.Background(), "pay-1", 10, "x"); err != service.ErrPaymentNotCompleted {
		t.Errorf("Refund() on pending payment error = %v, want ErrPaymentNotCompleted", err)
	}
}
