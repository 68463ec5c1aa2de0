package service

import (
	"context"
	"encoding/json"
	"time"

	"ride-engine/internal/apperr"
	"ride-engine/internal/domain"
	"ride-engine/internal/redis"
	"ride-engine/internal/repository"
)

// PSP is the interface to a Payment Service Provider. Charge returns the
// provider's transaction ID on success; a non-nil error means the charge
// was declined or the provider could not be reached.
type PSP interface {
	Charge(ctx context.Context, amount float64, method domain.PaymentMethod) (pspTransactionID string, err error)
}

// MockPSP is a deterministic PSP stand-in: it always succeeds.
type MockPSP struct{}

// NewMockPSP creates a new MockPSP.
func NewMockPSP() *MockPSP { return &MockPSP{} }

// Charge always succeeds, returning a synthetic transaction ID.
func (p *MockPSP) Charge(ctx context.Context, amount float64, method domain.PaymentMethod) (string, error) {
	return "mock_" + newID(), nil
}

const (
	defaultPaymentMaxAttempts = 3
	idempotencyResponseTTL    = time.Hour
)

// PaymentService charges a completed trip through the PSP, with
// idempotency-key-based replay protection so a retried client request
// never double-charges a rider.
type PaymentService struct {
	paymentRepo  repository.PaymentRepository
	refundRepo   repository.RefundRepository
	tripRepo     repository.TripRepository
	idempotency  *redis.IdempotencyStore
	psp          PSP
	notification *NotificationService
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	refundRepo repository.RefundRepository,
	tripRepo repository.TripRepository,
	idempotency *redis.IdempotencyStore,
	psp PSP,
	notification *NotificationService,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo, refundRepo: refundRepo, tripRepo: tripRepo,
		idempotency: idempotency, psp: psp, notification: notification,
	}
}

// ProcessPayment charges the trip's final fare. A repeated call with the
// same idempotencyKey replays the cached response instead of charging
// again; a repeated call with no idempotencyKey falls back to the
// trip's existing COMPLETED payment, if any.
func (s *PaymentService) ProcessPayment(ctx context.Context, tripID string, paymentMethod domain.PaymentMethod, idempotencyKey string) (*domain.Payment, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if paymentMethod == "" {
		paymentMethod = domain.PaymentMethodCash
	}

	if idempotencyKey != "" && s.idempotency != nil {
		if cached, ok, err := s.idempotency.Get(ctx, idempotencyKey); err == nil && ok {
			var payment domain.Payment
			if json.Unmarshal(cached, &payment) == nil {
				return &payment, nil
			}
		}
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != domain.TripStatusCompleted {
		return nil, ErrTripNotCompleted
	}

	if existing, err := s.paymentRepo.GetByTripID(ctx, tripID); err == nil && existing != nil {
		if existing.Status == domain.PaymentStatusCompleted {
			return existing, nil
		}
	}

	if idempotencyKey != "" && s.idempotency != nil {
		claimed, err := s.idempotency.Claim(ctx, idempotencyKey, idempotencyResponseTTL)
		if err != nil {
			return nil, err
		}
		if !claimed {
			// Another in-flight call already reserved this key; the
			// caller should retry the Get path shortly.
			return nil, apperr.New(apperr.Conflict, "payment already in flight for this idempotency key")
		}
	}

	payment := &domain.Payment{
		ID: newID(), TripID: tripID, Amount: trip.FinalFare,
		Status: domain.PaymentStatusPending, PaymentMethod: paymentMethod,
		IdempotencyKey: idempotencyKey, Attempts: 1, MaxAttempts: defaultPaymentMaxAttempts,
		CreatedAt: time.Now(),
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.charge(ctx, payment)

	if idempotencyKey != "" && s.idempotency != nil {
		if body, err := json.Marshal(payment); err == nil {
			_ = s.idempotency.Store(ctx, idempotencyKey, body, idempotencyResponseTTL)
		}
	}

	return payment, nil
}

// charge runs the PSP call and updates payment in place and in storage.
func (s *PaymentService) charge(ctx context.Context, payment *domain.Payment) {
	txnID, err := s.psp.Charge(ctx, payment.Amount, payment.PaymentMethod)
	if err != nil {
		payment.Status = domain.PaymentStatusFailed
		payment.FailureReason = err.Error()
		payment.FailedAt = time.Now()
	} else {
		payment.Status = domain.PaymentStatusCompleted
		payment.PSPTransactionID = txnID
		payment.CompletedAt = time.Now()
	}
	_ = s.paymentRepo.Update(ctx, payment)

	if s.notification == nil {
		return
	}
	trip, err := s.tripRepo.GetByID(ctx, payment.TripID)
	if err != nil {
		return
	}
	if payment.Status == domain.PaymentStatusCompleted {
		_ = s.notification.NotifyPaymentSuccess(ctx, trip.RiderID, payment)
	} else {
		_ = s.notification.NotifyPaymentFailed(ctx, trip.RiderID, payment)
	}
}

// GetPayment fetches a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}
	return s.paymentRepo.GetByID(ctx, paymentID)
}

// RetryPayment re-attempts a FAILED payment, up to MaxAttempts total.
func (s *PaymentService) RetryPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentStatusFailed {
		return nil, ErrPaymentNotFailed
	}
	if payment.Attempts >= payment.MaxAttempts {
		return nil, ErrPaymentAttemptsExceeded
	}

	payment.Attempts++
	s.charge(ctx, payment)
	return payment, nil
}

// Refund reverses some or all of a COMPLETED payment. A refund equal to
// the full payment amount marks it REFUNDED; anything smaller marks it
// PARTIALLY_REFUNDED.
func (s *PaymentService) Refund(ctx context.Context, paymentID string, amount float64, reason string) (*domain.Refund, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}
	if amount <= 0 {
		return nil, ErrInvalidPaymentAmount
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentStatusCompleted {
		return nil, ErrPaymentNotCompleted
	}
	if amount > payment.Amount {
		return nil, ErrRefundExceedsPayment
	}

	refund := &domain.Refund{ID: newID(), PaymentID: paymentID, Amount: amount, Reason: reason, CreatedAt: time.Now()}
	if err := s.refundRepo.Create(ctx, refund); err != nil {
		return nil, err
	}

	if amount == payment.Amount {
		payment.Status = domain.PaymentStatusRefunded
	} else {
		payment.Status = domain.PaymentStatusPartiallyRefunded
	}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}

	return refund, nil
}
