package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ride-engine/internal/domain"
	"ride-engine/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

func NewDriverRepository(db *sql.DB) *DriverRepository      { return &DriverRepository{q: db} }
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository { return &DriverRepository{q: tx} }

func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (id, name, phone, vehicle_descriptor, status, tier, rating, acceptance_rate, total_trips, last_lat, last_lng, last_location_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.q.ExecContext(ctx, query,
		driver.ID, driver.Name, driver.Phone, driver.VehicleDescriptor, driver.Status, driver.Tier,
		driver.Rating, driver.AcceptanceRate, driver.TotalTrips, driver.LastLat, driver.LastLng, nullTime(driver.LastLocationAt),
	)
	return err
}

const driverColumns = `id, name, phone, vehicle_descriptor, status, tier, rating, acceptance_rate, total_trips, last_lat, last_lng, last_location_at`

func scanDriver(row interface{ Scan(...any) error }) (*domain.Driver, error) {
	var d domain.Driver
	var lastLocationAt sql.NullTime
	err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.VehicleDescriptor, &d.Status, &d.Tier, &d.Rating, &d.AcceptanceRate, &d.TotalTrips, &d.LastLat, &d.LastLng, &lastLocationAt)
	if err != nil {
		return nil, err
	}
	if lastLocationAt.Valid {
		d.LastLocationAt = lastLocationAt.Time
	}
	return &d, nil
}

func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	d, err := scanDriver(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *DriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE phone = $1`
	d, err := scanDriver(r.q.QueryRowContext(ctx, query, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

func (r *DriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	query := `UPDATE drivers SET status = $1 WHERE id = $2`
	result, err := r.q.ExecContext(ctx, query, status, id)
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

// UpdateStatusIfCurrent is the compare-and-set primitive the matching
// transaction relies on: it only flips status when the row's current
// status still equals expected, guaranteeing a driver is never double
// assigned even under concurrent matching attempts.
func (r *DriverRepository) UpdateStatusIfCurrent(ctx context.Context, id string, expected, next domain.DriverStatus) (bool, error) {
	query := `UPDATE drivers SET status = $1 WHERE id = $2 AND status = $3`
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

func (r *DriverRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64) error {
	query := `UPDATE drivers SET last_lat = $1, last_lng = $2, last_location_at = now() WHERE id = $3`
	result, err := r.q.ExecContext(ctx, query, lat, lng, id)
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

func (r *DriverRepository) IncrementTotalTrips(ctx context.Context, id string) error {
	query := `UPDATE drivers SET total_trips = total_trips + 1 WHERE id = $1`
	_, err := r.q.ExecContext(ctx, query, id)
	return err
}

var _ repository.DriverRepository = (*DriverRepository)(nil)
