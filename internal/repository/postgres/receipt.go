package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ride-engine/internal/domain"
	"ride-engine/internal/repository"
)

// ReceiptRepository is a PostgreSQL implementation of repository.ReceiptRepository.
type ReceiptRepository struct{ q Querier }

func NewReceiptRepository(db *sql.DB) *ReceiptRepository      { return &ReceiptRepository{q: db} }
func NewReceiptRepositoryWithTx(tx *sql.Tx) *ReceiptRepository { return &ReceiptRepository{q: tx} }

const receiptColumns = `
	id, trip_id, ride_id, driver_id, rider_id, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	base_fare, distance_fare, time_fare, surge_multiplier, surge_amount, discount, final_fare, tax,
	payment_method, payment_status, distance_km, duration_seconds, started_at, ended_at, created_at
`

func (r *ReceiptRepository) Create(ctx context.Context, rc *domain.Receipt) error {
	query := `
		INSERT INTO receipts (` + receiptColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
	`
	_, err := r.q.ExecContext(ctx, query,
		rc.ID, rc.TripID, rc.RideID, rc.DriverID, rc.RiderID, rc.PickupLat, rc.PickupLng, rc.DropoffLat, rc.DropoffLng,
		rc.BaseFare, rc.DistanceFare, rc.TimeFare, rc.SurgeMultiplier, rc.SurgeAmount, rc.Discount, rc.FinalFare, rc.Tax,
		rc.PaymentMethod, rc.PaymentStatus, rc.DistanceKm, int64(rc.Duration.Seconds()), rc.StartedAt, rc.EndedAt, rc.CreatedAt,
	)
	return err
}

func (r *ReceiptRepository) GetByTripID(ctx context.Context, tripID string) (*domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE trip_id = $1`
	var rc domain.Receipt
	var durationSeconds int64
	err := r.q.QueryRowContext(ctx, query, tripID).Scan(
		&rc.ID, &rc.TripID, &rc.RideID, &rc.DriverID, &rc.RiderID, &rc.PickupLat, &rc.PickupLng, &rc.DropoffLat, &rc.DropoffLng,
		&rc.BaseFare, &rc.DistanceFare, &rc.TimeFare, &rc.SurgeMultiplier, &rc.SurgeAmount, &rc.Discount, &rc.FinalFare, &rc.Tax,
		&rc.PaymentMethod, &rc.PaymentStatus, &rc.DistanceKm, &durationSeconds, &rc.StartedAt, &rc.EndedAt, &rc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	rc.Duration = secondsToDuration(durationSeconds)
	return &rc, nil
}

var _ repository.ReceiptRepository = (*ReceiptRepository)(nil)
