package domain

import "time"

// Receipt is the rider-facing summary of a completed trip's charges.
type Receipt struct {
	ID              string
	TripID          string
	RideID          string
	DriverID        string
	RiderID         string
	PickupLat       float64
	PickupLng       float64
	DropoffLat      float64
	DropoffLng      float64
	BaseFare        float64
	DistanceFare    float64
	TimeFare        float64
	SurgeMultiplier float64
	SurgeAmount     float64
	Discount        float64
	FinalFare       float64
	Tax             float64 // finalFare * 0.18
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	DistanceKm      float64
	Duration        time.Duration
	StartedAt       time.Time
	EndedAt         time.Time
	CreatedAt       time.Time
}
