package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ride-engine/internal/domain"
	"ride-engine/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

func NewRideRepository(db *sql.DB) *RideRepository      { return &RideRepository{q: db} }
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository { return &RideRepository{q: tx} }

const rideColumns = `
	id, rider_id, region, pickup_lat, pickup_lng, pickup_address, dropoff_lat, dropoff_lng, dropoff_address,
	requested_tier, status, assigned_driver_id, estimated_fare, estimated_distance_km, estimated_duration_sec,
	surge_multiplier, payment_method, idempotency_key, search_attempts, matched_at, scheduled_at,
	created_at, cancelled_at, cancelled_by, cancel_reason, cancellation_fee
`

func scanRide(row interface{ Scan(...any) error }) (*domain.Ride, error) {
	var ride domain.Ride
	var assignedDriverID, idempotencyKey, cancelledBy, cancelReason sql.NullString
	var matchedAt, scheduledAt, cancelledAt sql.NullTime

	err := row.Scan(
		&ride.ID, &ride.RiderID, &ride.Region, &ride.PickupLat, &ride.PickupLng, &ride.PickupAddress,
		&ride.DropoffLat, &ride.DropoffLng, &ride.DropoffAddress, &ride.RequestedTier, &ride.Status,
		&assignedDriverID, &ride.EstimatedFare, &ride.EstimatedDistanceKm, &ride.EstimatedDurationSec,
		&ride.SurgeMultiplier, &ride.PaymentMethod, &idempotencyKey, &ride.SearchAttempts,
		&matchedAt, &scheduledAt, &ride.CreatedAt, &cancelledAt, &cancelledBy, &cancelReason, &ride.CancellationFee,
	)
	if err != nil {
		return nil, err
	}

	if assignedDriverID.Valid {
		ride.AssignedDriverID = assignedDriverID.String
	}
	if idempotencyKey.Valid {
		ride.IdempotencyKey = idempotencyKey.String
	}
	if cancelledBy.Valid {
		ride.CancelledBy = domain.CancelledBy(cancelledBy.String)
	}
	if cancelReason.Valid {
		ride.CancelReason = cancelReason.String
	}
	if matchedAt.Valid {
		ride.MatchedAt = matchedAt.Time
	}
	if scheduledAt.Valid {
		ride.ScheduledAt = scheduledAt.Time
	}
	if cancelledAt.Valid {
		ride.CancelledAt = cancelledAt.Time
	}

	return &ride, nil
}

func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
	`
	_, err := r.q.ExecContext(ctx, query,
		ride.ID, ride.RiderID, ride.Region, ride.PickupLat, ride.PickupLng, nullString(ride.PickupAddress),
		ride.DropoffLat, ride.DropoffLng, nullString(ride.DropoffAddress), ride.RequestedTier, ride.Status,
		nullString(ride.AssignedDriverID), ride.EstimatedFare, ride.EstimatedDistanceKm, ride.EstimatedDurationSec,
		ride.SurgeMultiplier, ride.PaymentMethod, nullString(ride.IdempotencyKey), ride.SearchAttempts,
		nullTime(ride.MatchedAt), nullTime(ride.ScheduledAt), ride.CreatedAt, nullTime(ride.CancelledAt),
		nullString(string(ride.CancelledBy)), nullString(ride.CancelReason), ride.CancellationFee,
	)
	return err
}

func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

func (r *RideRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE idempotency_key = $1`
	ride, err := scanRide(r.q.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ride, nil
}

func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides ORDER BY created_at DESC LIMIT 100`
	return r.queryRides(ctx, query)
}

func (r *RideRepository) ListByRider(ctx context.Context, riderID string, page, limit int) ([]*domain.Ride, error) {
	if limit <= 0 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	query := `SELECT ` + rideColumns + ` FROM rides WHERE rider_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.QueryContext(ctx, query, riderID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRideRows(rows)
}

func (r *RideRepository) queryRides(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRideRows(rows)
}

func scanRideRows(rows *sql.Rows) ([]*domain.Ride, error) {
	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides SET
			rider_id=$1, region=$2, pickup_lat=$3, pickup_lng=$4, pickup_address=$5, dropoff_lat=$6, dropoff_lng=$7, dropoff_address=$8,
			requested_tier=$9, status=$10, assigned_driver_id=$11, estimated_fare=$12, estimated_distance_km=$13,
			estimated_duration_sec=$14, surge_multiplier=$15, payment_method=$16, idempotency_key=$17, search_attempts=$18,
			matched_at=$19, scheduled_at=$20, cancelled_at=$21, cancelled_by=$22, cancel_reason=$23, cancellation_fee=$24
		WHERE id=$25
	`
	result, err := r.q.ExecContext(ctx, query,
		ride.RiderID, ride.Region, ride.PickupLat, ride.PickupLng, nullString(ride.PickupAddress),
		ride.DropoffLat, ride.DropoffLng, nullString(ride.DropoffAddress), ride.RequestedTier, ride.Status,
		nullString(ride.AssignedDriverID), ride.EstimatedFare, ride.EstimatedDistanceKm, ride.EstimatedDurationSec,
		ride.SurgeMultiplier, ride.PaymentMethod, nullString(ride.IdempotencyKey), ride.SearchAttempts,
		nullTime(ride.MatchedAt), nullTime(ride.ScheduledAt), nullTime(ride.CancelledAt),
		nullString(string(ride.CancelledBy)), nullString(ride.CancelReason), ride.CancellationFee,
		ride.ID,
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

// UpdateStatusIfCurrent is the compare-and-set the matching transaction
// relies on to guarantee single-winner assignment: it only advances
// status when the row's current status still equals expected.
func (r *RideRepository) UpdateStatusIfCurrent(ctx context.Context, id string, expected, next domain.RideStatus) (bool, error) {
	query := `UPDATE rides SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.q.ExecContext(ctx, query, next, id, expected)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

var _ repository.RideRepository = (*RideRepository)(nil)
