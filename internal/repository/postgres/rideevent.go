package postgres

import (
	"context"
	"database/sql"

	"ride-engine/internal/domain"
	"ride-engine/internal/repository"
)

// RideEventRepository is a PostgreSQL implementation of repository.RideEventRepository.
type RideEventRepository struct{ q Querier }

func NewRideEventRepository(db *sql.DB) *RideEventRepository      { return &RideEventRepository{q: db} }
func NewRideEventRepositoryWithTx(tx *sql.Tx) *RideEventRepository { return &RideEventRepository{q: tx} }

func (r *RideEventRepository) Create(ctx context.Context, e *domain.RideEvent) error {
	query := `INSERT INTO ride_events (id, ride_id, type, payload, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, e.ID, e.RideID, e.Type, e.Payload, e.CreatedAt)
	return err
}

func (r *RideEventRepository) ListByRideID(ctx context.Context, rideID string) ([]*domain.RideEvent, error) {
	query := `SELECT id, ride_id, type, payload, created_at FROM ride_events WHERE ride_id = $1 ORDER BY created_at`
	rows, err := r.q.QueryContext(ctx, query, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.RideEvent
	for rows.Next() {
		var e domain.RideEvent
		if err := rows.Scan(&e.ID, &e.RideID, &e.Type, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

var _ repository.RideEventRepository = (*RideEventRepository)(nil)
