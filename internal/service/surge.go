package service

import (
	"context"

	"ride-engine/internal/repository"
)

// SurgeService resolves the multiplier applied to a ride at creation
// time. Per the design notes this is a naive region lookup: it does not
// test the pickup point against the zone polygon, it simply returns
// whichever zone is active for the region, defaulting to 1.0 multiplier
// when none is active.
type SurgeService struct {
	surgeZoneRepo repository.SurgeZoneRepository
}

// NewSurgeService creates a new SurgeService.
func NewSurgeService(surgeZoneRepo repository.SurgeZoneRepository) *SurgeService {
	return &SurgeService{surgeZoneRepo: surgeZoneRepo}
}

const defaultSurgeMultiplier = 1.0

// GetMultiplier returns the active surge multiplier for region, or 1.0
// when no zone is active or none is configured.
func (s *SurgeService) GetMultiplier(ctx context.Context, region string, pickupLat, pickupLng float64) float64 {
	if s.surgeZoneRepo == nil {
		return defaultSurgeMultiplier
	}
	zone, err := s.surgeZoneRepo.GetActiveForPickup(ctx, region, pickupLat, pickupLng)
	if err != nil || zone == nil || !zone.Active {
		return defaultSurgeMultiplier
	}
	if zone.Multiplier <= 0 {
		return defaultSurgeMultiplier
	}
	return zone.Multiplier
}
