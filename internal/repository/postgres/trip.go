package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ride-engine/internal/domain"
	"ride-engine/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

func NewTripRepository(db *sql.DB) *TripRepository      { return &TripRepository{q: db} }
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository { return &TripRepository{q: tx} }

const tripColumns = `
	id, ride_id, driver_id, rider_id, status, started_at, ended_at, actual_distance_km, route_path,
	base_fare, per_km_rate, per_min_rate, surge_multiplier, distance_fare, time_fare, surge_amount,
	discount, final_fare, platform_fee, driver_earnings, start_otp
`

func scanTrip(row interface{ Scan(...any) error }) (*domain.Trip, error) {
	var t domain.Trip
	var startedAt, endedAt sql.NullTime
	var routePath sql.NullString

	err := row.Scan(
		&t.ID, &t.RideID, &t.DriverID, &t.RiderID, &t.Status, &startedAt, &endedAt, &t.ActualDistanceKm, &routePath,
		&t.BaseFare, &t.PerKmRate, &t.PerMinRate, &t.SurgeMultiplier, &t.DistanceFare, &t.TimeFare, &t.SurgeAmount,
		&t.Discount, &t.FinalFare, &t.PlatformFee, &t.DriverEarnings, &t.StartOTP,
	)
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		t.StartedAt = startedAt.Time
	}
	if endedAt.Valid {
		t.EndedAt = endedAt.Time
	}
	if routePath.Valid {
		t.RoutePath = routePath.String
	}
	return &t, nil
}

func (r *TripRepository) Create(ctx context.Context, t *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`
	_, err := r.q.ExecContext(ctx, query,
		t.ID, t.RideID, t.DriverID, t.RiderID, t.Status, nullTime(t.StartedAt), nullTime(t.EndedAt),
		t.ActualDistanceKm, nullString(t.RoutePath), t.BaseFare, t.PerKmRate, t.PerMinRate, t.SurgeMultiplier,
		t.DistanceFare, t.TimeFare, t.SurgeAmount, t.Discount, t.FinalFare, t.PlatformFee, t.DriverEarnings, t.StartOTP,
	)
	return err
}

func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	t, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TripRepository) GetByRideID(ctx context.Context, rideID string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE ride_id = $1`
	t, err := scanTrip(r.q.QueryRowContext(ctx, query, rideID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TripRepository) Update(ctx context.Context, t *domain.Trip) error {
	query := `
		UPDATE trips SET
			ride_id=$1, driver_id=$2, rider_id=$3, status=$4, started_at=$5, ended_at=$6, actual_distance_km=$7,
			route_path=$8, base_fare=$9, per_km_rate=$10, per_min_rate=$11, surge_multiplier=$12, distance_fare=$13,
			time_fare=$14, surge_amount=$15, discount=$16, final_fare=$17, platform_fee=$18, driver_earnings=$19, start_otp=$20
		WHERE id=$21
	`
	result, err := r.q.ExecContext(ctx, query,
		t.RideID, t.DriverID, t.RiderID, t.Status, nullTime(t.StartedAt), nullTime(t.EndedAt), t.ActualDistanceKm,
		nullString(t.RoutePath), t.BaseFare, t.PerKmRate, t.PerMinRate, t.SurgeMultiplier, t.DistanceFare, t.TimeFare,
		t.SurgeAmount, t.Discount, t.FinalFare, t.PlatformFee, t.DriverEarnings, t.StartOTP, t.ID,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE driver_id = $1 AND status IN ($2, $3)
		LIMIT 1
	`
	t, err := scanTrip(r.q.QueryRowContext(ctx, query, driverID, domain.TripStatusPending, domain.TripStatusStarted))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

var _ repository.TripRepository = (*TripRepository)(nil)
