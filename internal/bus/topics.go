package bus

import "fmt"

// RideTopic returns the topic name a ride's lifecycle events and live
// driver-location updates are published on.
func RideTopic(rideID string) string { return fmt.Sprintf("ride:%s", rideID) }

// LocationTopic returns the topic name a single driver's raw location
// pings are published on.
func LocationTopic(driverID string) string { return fmt.Sprintf("location:%s", driverID) }

// RideLocationEvent is published to a ride's topic on every accepted
// location ping from its assigned driver.
type RideLocationEvent struct {
	DriverLocation struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"driverLocation"`
}

// RideStatusEvent is published to a ride's topic whenever the state
// machine transitions it.
type RideStatusEvent struct {
	Status   string `json:"status"`
	DriverID string `json:"driverId,omitempty"`
}

// LocationPing is published to a driver's location topic verbatim.
type LocationPing struct {
	DriverID string   `json:"driverId"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Heading  *float64 `json:"heading,omitempty"`
	Speed    *float64 `json:"speed,omitempty"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}
