package postgres

import (
	"context"
	"database/sql"

	"ride-engine/internal/domain"
	"ride-engine/internal/repository"
)

// RefundRepository is a PostgreSQL implementation of repository.RefundRepository.
type RefundRepository struct{ q Querier }

func NewRefundRepository(db *sql.DB) *RefundRepository      { return &RefundRepository{q: db} }
func NewRefundRepositoryWithTx(tx *sql.Tx) *RefundRepository { return &RefundRepository{q: tx} }

func (r *RefundRepository) Create(ctx context.Context, refund *domain.Refund) error {
	query := `INSERT INTO refunds (id, payment_id, amount, reason, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, refund.ID, refund.PaymentID, refund.Amount, refund.Reason, refund.CreatedAt)
	return err
}

func (r *RefundRepository) GetByPaymentID(ctx context.Context, paymentID string) ([]*domain.Refund, error) {
	query := `SELECT id, payment_id, amount, reason, created_at FROM refunds WHERE payment_id = $1 ORDER BY created_at`
	rows, err := r.q.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []*domain.Refund
	for rows.Next() {
		var ref domain.Refund
		if err := rows.Scan(&ref.ID, &ref.PaymentID, &ref.Amount, &ref.Reason, &ref.CreatedAt); err != nil {
			return nil, err
		}
		refunds = append(refunds, &ref)
	}
	return refunds, rows.Err()
}

var _ repository.RefundRepository = (*RefundRepository)(nil)

// EarningRepository is a PostgreSQL implementation of repository.EarningRepository.
type EarningRepository struct{ q Querier }

func NewEarningRepository(db *sql.DB) *EarningRepository      { return &EarningRepository{q: db} }
func NewEarningRepositoryWithTx(tx *sql.Tx) *EarningRepository { return &EarningRepository{q: tx} }

func (r *EarningRepository) Create(ctx context.Context, earning *domain.Earning) error {
	query := `INSERT INTO earnings (id, driver_id, trip_id, amount, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, earning.ID, earning.DriverID, earning.TripID, earning.Amount, earning.CreatedAt)
	return err
}

var _ repository.EarningRepository = (*EarningRepository)(nil)
