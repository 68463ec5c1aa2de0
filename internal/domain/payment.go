package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending            PaymentStatus = "PENDING"
	PaymentStatusProcessing         PaymentStatus = "PROCESSING"
	PaymentStatusCompleted          PaymentStatus = "COMPLETED"
	PaymentStatusFailed             PaymentStatus = "FAILED"
	PaymentStatusRefunded           PaymentStatus = "REFUNDED"
	PaymentStatusPartiallyRefunded  PaymentStatus = "PARTIALLY_REFUNDED"
)

// Payment represents, at most one per completed trip, the money movement
// for that trip.
type Payment struct {
	ID               string
	TripID           string
	Amount           float64
	Status           PaymentStatus
	PaymentMethod    PaymentMethod
	IdempotencyKey   string // unique
	PSPTransactionID string
	Attempts         int
	MaxAttempts      int
	FailureReason    string
	CompletedAt      time.Time
	FailedAt         time.Time
	CreatedAt        time.Time
}

// Refund records money returned against a completed payment.
type Refund struct {
	ID        string
	PaymentID string
	Amount    float64
	Reason    string
	CreatedAt time.Time
}

// Earning records a driver's share of a completed trip's fare.
type Earning struct {
	ID        string
	DriverID  string
	TripID    string
	Amount    float64
	CreatedAt time.Time
}
