package service

import (
	"math"

	"github.com/google/uuid"
)

func newID() string { return uuid.New().String() }

func isValidLatitude(lat float64) bool { return lat >= -90 && lat <= 90 }

func isValidLongitude(lng float64) bool { return lng >= -180 && lng <= 180 }

const defaultRegion = "default"

// round2 rounds to two decimal places using round-half-to-even, matching
// internal/pricing's rounding so money values are consistent wherever
// they are derived outside that package.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
