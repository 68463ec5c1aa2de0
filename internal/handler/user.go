package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ride-engine/internal/domain"
	"ride-engine/internal/repository"
	"ride-engine/internal/service"
)

// RiderHandler handles HTTP requests for riders.
type RiderHandler struct {
	riderRepo   repository.RiderRepository
	rideService *service.RideService
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(riderRepo repository.RiderRepository, rideService *service.RideService) *RiderHandler {
	return &RiderHandler{riderRepo: riderRepo, rideService: rideService}
}

// RegisterRequest is the HTTP request body for rider registration.
type RegisterRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// RiderResponse is the HTTP response for rider data.
type RiderResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Rating     float64 `json:"rating"`
	TotalRides int     `json:"total_rides"`
}

// Register handles POST /v1/riders/register
func (h *RiderHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Name == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name and phone are required"})
		return
	}

	existing, err := h.riderRepo.GetByPhone(c.Request.Context(), req.Phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"message": "rider already registered",
			"rider":   toRiderResponse(existing),
		})
		return
	}

	rider := &domain.Rider{ID: uuid.New().String(), Name: req.Name, Phone: req.Phone}
	if err := h.riderRepo.Create(c.Request.Context(), rider); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toRiderResponse(rider))
}

// GetHistory handles GET /v1/riders/:id/rides
func (h *RiderHandler) GetHistory(c *gin.Context) {
	riderID := c.Param("id")
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	rides, err := h.rideService.ListRiderHistory(c.Request.Context(), riderID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	var response []GetRideResponse
	for _, r := range rides {
		response = append(response, toRideResponse(r))
	}
	c.JSON(http.StatusOK, response)
}

func toRiderResponse(r *domain.Rider) RiderResponse {
	return RiderResponse{ID: r.ID, Name: r.Name, Phone: r.Phone, Rating: r.Rating, TotalRides: r.TotalRides}
}
