package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ride-engine/internal/repository"
	"ride-engine/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
	tripRepo    repository.TripRepository
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService, tripRepo repository.TripRepository) *TripHandler {
	return &TripHandler{tripService: tripService, tripRepo: tripRepo}
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	ID               string  `json:"id"`
	RideID           string  `json:"ride_id"`
	DriverID         string  `json:"driver_id"`
	Status           string  `json:"status"`
	StartedAt        string  `json:"started_at,omitempty"`
	EndedAt          string  `json:"ended_at,omitempty"`
	ActualDistanceKm float64 `json:"actual_distance_km,omitempty"`
	FinalFare        float64 `json:"final_fare,omitempty"`
	DriverEarnings   float64 `json:"driver_earnings,omitempty"`
}

// ReceiptResponse is the HTTP response for a generated receipt.
type ReceiptResponse struct {
	ID              string  `json:"id"`
	TripID          string  `json:"trip_id"`
	BaseFare        float64 `json:"base_fare"`
	DistanceFare    float64 `json:"distance_fare"`
	TimeFare        float64 `json:"time_fare"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
	SurgeAmount     float64 `json:"surge_amount"`
	FinalFare       float64 `json:"final_fare"`
	Tax             float64 `json:"tax"`
	PaymentMethod   string  `json:"payment_method"`
	PaymentStatus   string  `json:"payment_status"`
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
}

func toTripResponse(trip *service.EndTripResult) TripResponse {
	resp := TripResponse{
		ID: trip.Trip.ID, RideID: trip.Trip.RideID, DriverID: trip.Trip.DriverID, Status: string(trip.Trip.Status),
		ActualDistanceKm: trip.Trip.ActualDistanceKm, FinalFare: trip.Trip.FinalFare, DriverEarnings: trip.Trip.DriverEarnings,
	}
	if !trip.Trip.StartedAt.IsZero() {
		resp.StartedAt = trip.Trip.StartedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if !trip.Trip.EndedAt.IsZero() {
		resp.EndedAt = trip.Trip.EndedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// StartTripRequest is the HTTP request body for starting a trip.
type StartTripRequest struct {
	OTP string `json:"otp"`
}

// StartTrip handles POST /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	var req StartTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.StartTrip(c.Request.Context(), c.Param("id"), req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, TripResponse{
		ID: trip.ID, RideID: trip.RideID, DriverID: trip.DriverID, Status: string(trip.Status),
		StartedAt: trip.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// EndTripRequest is the HTTP request body for ending a trip.
type EndTripRequest struct {
	ActualDistanceKm float64 `json:"actual_distance_km"`
	RoutePath        string  `json:"route_path,omitempty"`
}

// EndTrip handles POST /v1/trips/:id/end
func (h *TripHandler) EndTrip(c *gin.Context) {
	var req EndTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.tripService.EndTrip(c.Request.Context(), c.Param("id"), req.ActualDistanceKm, req.RoutePath)
	if err != nil {
		respondError(c, err)
		return
	}

	response := struct {
		TripResponse
		Receipt *ReceiptResponse `json:"receipt,omitempty"`
	}{TripResponse: toTripResponse(result)}

	if result.Receipt != nil {
		r := result.Receipt
		response.Receipt = &ReceiptResponse{
			ID: r.ID, TripID: r.TripID, BaseFare: r.BaseFare, DistanceFare: r.DistanceFare, TimeFare: r.TimeFare,
			SurgeMultiplier: r.SurgeMultiplier, SurgeAmount: r.SurgeAmount, FinalFare: r.FinalFare, Tax: r.Tax,
			PaymentMethod: string(r.PaymentMethod), PaymentStatus: string(r.PaymentStatus),
			DistanceKm: r.DistanceKm, DurationMinutes: r.Duration.Minutes(),
		}
	}

	respondJSON(c, http.StatusOK, response)
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := TripResponse{
		ID: trip.ID, RideID: trip.RideID, DriverID: trip.DriverID, Status: string(trip.Status),
		ActualDistanceKm: trip.ActualDistanceKm, FinalFare: trip.FinalFare, DriverEarnings: trip.DriverEarnings,
	}
	if !trip.StartedAt.IsZero() {
		resp.StartedAt = trip.StartedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if !trip.EndedAt.IsZero() {
		resp.EndedAt = trip.EndedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	respondJSON(c, http.StatusOK, resp)
}
