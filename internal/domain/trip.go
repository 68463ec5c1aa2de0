package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusPending   TripStatus = "PENDING"
	TripStatusStarted   TripStatus = "STARTED"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

var allowedTripTransitions = map[TripStatus][]TripStatus{
	TripStatusPending: {TripStatusStarted, TripStatusCancelled},
	TripStatusStarted: {TripStatusCompleted, TripStatusCancelled},
}

// CanTransitionTrip reports whether the trip state machine allows moving
// from one status to another.
func CanTransitionTrip(from, to TripStatus) bool {
	for _, candidate := range allowedTripTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Trip is the execution phase of a ride, one-to-one with a ride once it
// progresses past ARRIVED.
type Trip struct {
	ID       string
	RideID   string
	DriverID string
	RiderID  string
	Status   TripStatus

	StartedAt time.Time
	EndedAt   time.Time

	ActualDistanceKm float64
	RoutePath        string // opaque encoded path, stored as-is

	// Frozen pricing inputs, captured from the active PricingConfig when
	// the driver arrives (the trip row is created then) so later config
	// edits never affect an in-flight trip.
	BaseFare        float64
	PerKmRate       float64
	PerMinRate      float64
	SurgeMultiplier float64

	// Derived fare components, computed once at endTrip (§4.5).
	DistanceFare   float64
	TimeFare       float64
	SurgeAmount    float64
	Discount       float64
	FinalFare      float64
	PlatformFee    float64
	DriverEarnings float64

	StartOTP string
}
