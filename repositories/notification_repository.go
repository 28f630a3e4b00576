package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quadra-gg/quadra/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID int) error
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, message, meta, read)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, n.UserID, n.Type, n.Message, n.Meta).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *postgresNotificationRepository) ListByUser(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error) {
	query := `SELECT id, user_id, type, message, meta, read, created_at FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Meta, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, nil
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id, userID int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return checkAffectedRows(result, ErrNotificationNotFound)
}
