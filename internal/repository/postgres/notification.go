package postgres

import (
	"context"
	"database/sql"

	"ride-engine/internal/domain"
	"ride-engine/internal/repository"
)

// NotificationRepository is a PostgreSQL implementation of repository.NotificationRepository.
type NotificationRepository struct{ q Querier }

func NewNotificationRepository(db *sql.DB) *NotificationRepository      { return &NotificationRepository{q: db} }
func NewNotificationRepositoryWithTx(tx *sql.Tx) *NotificationRepository { return &NotificationRepository{q: tx} }

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, recipient_role, ride_id, type, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query, n.ID, n.RecipientID, n.RecipientRole, nullString(n.RideID), n.Type, n.Message, n.CreatedAt)
	return err
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, recipient_id, recipient_role, COALESCE(ride_id, ''), type, message, created_at
		FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT $2
	`
	rows, err := r.q.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.RecipientRole, &n.RideID, &n.Type, &n.Message, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)
