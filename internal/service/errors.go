package service

import "ride-engine/internal/apperr"

// Named error values used across the service layer. Each wraps the
// shared apperr.Kind taxonomy so callers can branch on Kind rather than
// on identity, while keeping call sites readable.
var (
	ErrInvalidRiderID             = apperr.New(apperr.InvalidInput, "invalid rider id")
	ErrInvalidRideID              = apperr.New(apperr.InvalidInput, "invalid ride id")
	ErrInvalidDriverID            = apperr.New(apperr.InvalidInput, "invalid driver id")
	ErrInvalidTripID              = apperr.New(apperr.InvalidInput, "invalid trip id")
	ErrInvalidPaymentID           = apperr.New(apperr.InvalidInput, "invalid payment id")
	ErrInvalidPickupLocation      = apperr.New(apperr.InvalidInput, "invalid pickup location")
	ErrInvalidDestinationLocation = apperr.New(apperr.InvalidInput, "invalid destination location")
	ErrInvalidLocation            = apperr.New(apperr.InvalidInput, "invalid location")
	ErrInvalidPaymentMethod       = apperr.New(apperr.InvalidInput, "invalid payment method")
	ErrInvalidPaymentAmount       = apperr.New(apperr.InvalidInput, "invalid payment amount")

	ErrNoDriverAvailable = apperr.New(apperr.Conflict, "no driver available")
	ErrRideNotSearching  = apperr.New(apperr.Conflict, "ride not in searching state")
	ErrDriverNotAvailable = apperr.New(apperr.Conflict, "driver not available")

	ErrRideCannotBeCancelled = apperr.New(apperr.Validation, "ride cannot be cancelled in current state")
	ErrRideNotAssigned       = apperr.New(apperr.Validation, "ride not assigned to a driver")
	ErrDriverNotAssigned     = apperr.New(apperr.Validation, "driver not assigned to this ride")
	ErrTripNotPending        = apperr.New(apperr.Validation, "trip not pending")
	ErrTripNotStarted        = apperr.New(apperr.Validation, "trip not started")
	ErrOTPMismatch           = apperr.New(apperr.Validation, "start otp does not match")
	ErrTripNotCompleted      = apperr.New(apperr.Validation, "trip not completed")
	ErrPaymentNotFailed      = apperr.New(apperr.Validation, "payment not in failed state")
	ErrPaymentAttemptsExceeded = apperr.New(apperr.Validation, "payment max attempts exceeded")
	ErrPaymentNotCompleted   = apperr.New(apperr.Validation, "payment not completed")
	ErrRefundExceedsPayment  = apperr.New(apperr.Validation, "refund amount exceeds payment amount")
)
