package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ride-engine/internal/apperr"
	"ride-engine/internal/domain"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	c.JSON(mapErrorToHTTPStatus(err), ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps a service/repository error to an HTTP status
// code by apperr.Kind rather than by sentinel identity, so a new error
// value never needs a matching new case here.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case apperr.Is(err, apperr.NotFound):
		return http.StatusNotFound
	case apperr.Is(err, apperr.InvalidInput):
		return http.StatusBadRequest
	case apperr.Is(err, apperr.Validation):
		return http.StatusUnprocessableEntity
	case apperr.Is(err, apperr.Conflict):
		return http.StatusConflict
	case apperr.Is(err, apperr.Timeout):
		return http.StatusGatewayTimeout
	case apperr.Is(err, apperr.Dependency):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// queryInt reads an integer query parameter, falling back to def on
// absence or a malformed value.
func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// GetRideResponse is the HTTP response shape for a ride.
type GetRideResponse struct {
	ID                   string  `json:"id"`
	RiderID              string  `json:"rider_id"`
	Region               string  `json:"region"`
	PickupLat            float64 `json:"pickup_lat"`
	PickupLng            float64 `json:"pickup_lng"`
	DropoffLat           float64 `json:"dropoff_lat"`
	DropoffLng           float64 `json:"dropoff_lng"`
	Status               string  `json:"status"`
	AssignedDriverID     string  `json:"assigned_driver_id,omitempty"`
	EstimatedFare        float64 `json:"estimated_fare"`
	EstimatedDistanceKm  float64 `json:"estimated_distance_km"`
	EstimatedDurationSec int     `json:"estimated_duration_sec"`
	SurgeMultiplier      float64 `json:"surge_multiplier"`
	PaymentMethod        string  `json:"payment_method"`
	CancelledAt          string  `json:"cancelled_at,omitempty"`
	CancelledBy          string  `json:"cancelled_by,omitempty"`
	CancelReason         string  `json:"cancel_reason,omitempty"`
	CancellationFee      float64 `json:"cancellation_fee,omitempty"`
}

func toRideResponse(r *domain.Ride) GetRideResponse {
	resp := GetRideResponse{
		ID:                   r.ID,
		RiderID:              r.RiderID,
		Region:               r.Region,
		PickupLat:            r.PickupLat,
		PickupLng:            r.PickupLng,
		DropoffLat:           r.DropoffLat,
		DropoffLng:           r.DropoffLng,
		Status:               string(r.Status),
		AssignedDriverID:     r.AssignedDriverID,
		EstimatedFare:        r.EstimatedFare,
		EstimatedDistanceKm:  r.EstimatedDistanceKm,
		EstimatedDurationSec: r.EstimatedDurationSec,
		SurgeMultiplier:      r.SurgeMultiplier,
		PaymentMethod:        string(r.PaymentMethod),
	}
	if !r.CancelledAt.IsZero() {
		resp.CancelledAt = r.CancelledAt.Format("2006-01-02T15:04:05Z07:00")
		resp.CancelledBy = string(r.CancelledBy)
		resp.CancelReason = r.CancelReason
		resp.CancellationFee = r.CancellationFee
	}
	return resp
}
