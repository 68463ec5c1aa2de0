// Package pricing computes trip fares. The fare function is pure: given
// the same inputs it always produces the same outputs, with no I/O.
package pricing

import "math"

// Inputs captures everything the fare function needs to price one trip.
type Inputs struct {
	DistanceKm      float64
	DurationSec     float64
	BaseFare        float64
	PerKmRate       float64
	PerMinRate      float64
	SurgeMultiplier float64
	Discount        float64
}

// Fare holds every derived component of §4.5's formula.
type Fare struct {
	DistanceFare   float64
	TimeFare       float64
	Subtotal       float64
	SurgeAmount    float64
	TotalFare      float64
	FinalFare      float64
	PlatformFee    float64
	DriverEarnings float64
}

// platformFeeRate is the platform's cut of the final fare.
const platformFeeRate = 0.20

// Compute derives every fare component from in, rounding each monetary
// output to two decimal places with banker's (round-half-to-even)
// rounding. Distance and duration are never rounded.
func Compute(in Inputs) Fare {
	distanceFare := in.DistanceKm * in.PerKmRate
	timeFare := (in.DurationSec / 60) * in.PerMinRate
	subtotal := in.BaseFare + distanceFare + timeFare
	surgeAmount := subtotal * (in.SurgeMultiplier - 1)
	totalFare := subtotal + surgeAmount
	finalFare := math.Max(0, totalFare-in.Discount)
	platformFee := finalFare * platformFeeRate
	driverEarnings := finalFare - platformFee

	return Fare{
		DistanceFare:   round2(distanceFare),
		TimeFare:       round2(timeFare),
		Subtotal:       round2(subtotal),
		SurgeAmount:    round2(surgeAmount),
		TotalFare:      round2(totalFare),
		FinalFare:      round2(finalFare),
		PlatformFee:    round2(platformFee),
		DriverEarnings: round2(driverEarnings),
	}
}

// receiptTaxRate is applied to the final fare for the rider-facing receipt.
const receiptTaxRate = 0.18

// Tax returns the receipt tax line for a given final fare.
func Tax(finalFare float64) float64 {
	return round2(finalFare * receiptTaxRate)
}

// round2 rounds to two decimal places using round-half-to-even, so a
// value exactly on a cent boundary doesn't always round up.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
