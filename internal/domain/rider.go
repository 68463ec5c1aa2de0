package domain

import "time"

// Rider represents a transport requester in the system.
type Rider struct {
	ID         string
	Name       string
	Phone      string
	Rating     float64
	TotalRides int
	CreatedAt  time.Time
}
