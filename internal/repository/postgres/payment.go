package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ride-engine/internal/domain"
	"ride-engine/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository      { return &PaymentRepository{q: db} }
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository { return &PaymentRepository{q: tx} }

const paymentColumns = `
	id, trip_id, amount, status, payment_method, idempotency_key, psp_transaction_id, attempts, max_attempts,
	failure_reason, completed_at, failed_at, created_at
`

func scanPayment(row interface{ Scan(...any) error }) (*domain.Payment, error) {
	var p domain.Payment
	var pspTxnID, failureReason sql.NullString
	var completedAt, failedAt sql.NullTime

	err := row.Scan(
		&p.ID, &p.TripID, &p.Amount, &p.Status, &p.PaymentMethod, &p.IdempotencyKey, &pspTxnID, &p.Attempts,
		&p.MaxAttempts, &failureReason, &completedAt, &failedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if pspTxnID.Valid {
		p.PSPTransactionID = pspTxnID.String
	}
	if failureReason.Valid {
		p.FailureReason = failureReason.String
	}
	if completedAt.Valid {
		p.CompletedAt = completedAt.Time
	}
	if failedAt.Valid {
		p.FailedAt = failedAt.Time
	}
	return &p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`
	_, err := r.q.ExecContext(ctx, query,
		p.ID, p.TripID, p.Amount, p.Status, p.PaymentMethod, p.IdempotencyKey, nullString(p.PSPTransactionID),
		p.Attempts, p.MaxAttempts, nullString(p.FailureReason), nullTime(p.CompletedAt), nullTime(p.FailedAt), p.CreatedAt,
	)
	return err
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PaymentRepository) GetByTripID(ctx context.Context, tripID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE trip_id = $1`
	p, err := scanPayment(r.q.QueryRowContext(ctx, query, tripID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`
	p, err := scanPayment(r.q.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	query := `
		UPDATE payments SET
			trip_id=$1, amount=$2, status=$3, payment_method=$4, idempotency_key=$5, psp_transaction_id=$6,
			attempts=$7, max_attempts=$8, failure_reason=$9, completed_at=$10, failed_at=$11
		WHERE id=$12
	`
	result, err := r.q.ExecContext(ctx, query,
		p.TripID, p.Amount, p.Status, p.PaymentMethod, p.IdempotencyKey, nullString(p.PSPTransactionID),
		p.Attempts, p.MaxAttempts, nullString(p.FailureReason), nullTime(p.CompletedAt), nullTime(p.FailedAt), p.ID,
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

var _ repository.PaymentRepository = (*PaymentRepository)(nil)
