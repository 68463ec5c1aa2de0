package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ride-engine/internal/domain"
	"ride-engine/internal/repository"
)

// RiderRepository is a PostgreSQL implementation of repository.RiderRepository.
type RiderRepository struct {
	q Querier
}

func NewRiderRepository(db *sql.DB) *RiderRepository        { return &RiderRepository{q: db} }
func NewRiderRepositoryWithTx(tx *sql.Tx) *RiderRepository   { return &RiderRepository{q: tx} }

func (r *RiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	query := `INSERT INTO riders (id, name, phone, rating, total_rides, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query, rider.ID, rider.Name, rider.Phone, rider.Rating, rider.TotalRides, rider.CreatedAt)
	return err
}

func (r *RiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	query := `SELECT id, name, phone, rating, total_rides, created_at FROM riders WHERE id = $1`
	var rider domain.Rider
	err := r.q.QueryRowContext(ctx, query, id).Scan(&rider.ID, &rider.Name, &rider.Phone, &rider.Rating, &rider.TotalRides, &rider.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rider, nil
}

func (r *RiderRepository) GetByPhone(ctx context.Context, phone string) (*domain.Rider, error) {
	query := `SELECT id, name, phone, rating, total_rides, created_at FROM riders WHERE phone = $1`
	var rider domain.Rider
	err := r.q.QueryRowContext(ctx, query, phone).Scan(&rider.ID, &rider.Name, &rider.Phone, &rider.Rating, &rider.TotalRides, &rider.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rider, nil
}

// CompleteRide adds ratingDelta to the rider's rating and bumps the
// lifetime ride count, in one statement so concurrent completions don't
// lose an update.
func (r *RiderRepository) CompleteRide(ctx context.Context, id string, ratingDelta float64) error {
	query := `
		UPDATE riders
		SET total_rides = total_rides + 1,
		    rating = rating + $2
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, id, ratingDelta)
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

var _ repository.RiderRepository = (*RiderRepository)(nil)
