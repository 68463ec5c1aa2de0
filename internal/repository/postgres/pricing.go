package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ride-engine/internal/domain"
	"ride-engine/internal/repository"
)

// PricingConfigRepository is a PostgreSQL implementation of repository.PricingConfigRepository.
type PricingConfigRepository struct{ q Querier }

func NewPricingConfigRepository(db *sql.DB) *PricingConfigRepository { return &PricingConfigRepository{q: db} }

func (r *PricingConfigRepository) GetActive(ctx context.Context, region string, tier domain.RideTier) (*domain.PricingConfig, error) {
	query := `
		SELECT id, region, tier, base_fare, per_km_rate, per_min_rate, active
		FROM pricing_configs WHERE region = $1 AND tier = $2 AND active = true
		LIMIT 1
	`
	var pc domain.PricingConfig
	err := r.q.QueryRowContext(ctx, query, region, tier).Scan(&pc.ID, &pc.Region, &pc.Tier, &pc.BaseFare, &pc.PerKmRate, &pc.PerMinRate, &pc.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &pc, nil
}

var _ repository.PricingConfigRepository = (*PricingConfigRepository)(nil)

// SurgeZoneRepository is a PostgreSQL implementation of repository.SurgeZoneRepository.
//
// GetActiveForPickup intentionally ignores pickupLat/pickupLng: per the
// design notes, surge zones are resolved as a naive "any active zone in
// the region" lookup rather than true polygon containment. This mirrors a
// known simplification in the source system and is preserved, not fixed.
type SurgeZoneRepository struct{ q Querier }

func NewSurgeZoneRepository(db *sql.DB) *SurgeZoneRepository { return &SurgeZoneRepository{q: db} }

func (r *SurgeZoneRepository) GetActiveForPickup(ctx context.Context, region string, pickupLat, pickupLng float64) (*domain.SurgeZone, error) {
	query := `
		SELECT id, region, polygon, multiplier, active
		FROM surge_zones WHERE region = $1 AND active = true
		LIMIT 1
	`
	var sz domain.SurgeZone
	err := r.q.QueryRowContext(ctx, query, region).Scan(&sz.ID, &sz.Region, &sz.Polygon, &sz.Multiplier, &sz.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sz, nil
}

var _ repository.SurgeZoneRepository = (*SurgeZoneRepository)(nil)
