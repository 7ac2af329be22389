package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/infrastructure/persistence/sqldb"
	"github.com/hyeunung/hanslwebapp-sub000/pkg/database"
)

const notificationColumns = `id, order_number, kind, recipient, message, status, attempts,
	error_message, sent_at, created_at, updated_at`

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a notification attempt
func (r *NotificationRepository) Create(ctx context.Context, n *entity.OrderNotification) error {
	query := r.db.Rebind(`
		INSERT INTO order_notifications (
			order_number, kind, recipient, message, status, attempts,
			error_message, sent_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	if n.Status == "" {
		n.Status = entity.NotificationStatusPending
	}

	var errMsg sql.NullString
	if n.ErrorMessage != "" {
		errMsg = sql.NullString{String: n.ErrorMessage, Valid: true}
	}

	err := sqldb.Conn(ctx, r.db).QueryRowContext(ctx, query,
		n.OrderNumber, n.Kind, n.Recipient, n.Message, n.Status, n.Attempts,
		errMsg, nullTime(n.SentAt), n.CreatedAt, n.UpdatedAt,
	).Scan(&n.ID)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("order_number", n.OrderNumber),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetByOrderNumber returns an order's notifications, oldest first
func (r *NotificationRepository) GetByOrderNumber(ctx context.Context, orderNumber string) ([]*entity.OrderNotification, error) {
	return r.list(ctx, "SELECT "+notificationColumns+
		" FROM order_notifications WHERE order_number = ? ORDER BY id", orderNumber)
}

// ListRetryable returns failed notifications that still have attempts left
func (r *NotificationRepository) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*entity.OrderNotification, error) {
	return r.list(ctx, "SELECT "+notificationColumns+`
		FROM order_notifications
		WHERE status = ? AND attempts < ?
		ORDER BY updated_at, id
		LIMIT ?`, entity.NotificationStatusFailed, maxAttempts, limit)
}

func (r *NotificationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.OrderNotification, error) {
	rows, err := sqldb.Conn(ctx, r.db).QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*entity.OrderNotification
	for rows.Next() {
		var n entity.OrderNotification
		var errMsg sql.NullString
		var sentAt sql.NullTime
		if err := rows.Scan(
			&n.ID, &n.OrderNumber, &n.Kind, &n.Recipient, &n.Message, &n.Status, &n.Attempts,
			&errMsg, &sentAt, &n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.ErrorMessage = errMsg.String
		n.SentAt = timePtr(sentAt)
		out = append(out, &n)
	}
	return out, rows.Err()
}

// MarkSent marks the notification as delivered and counts the attempt
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	query := r.db.Rebind(`
		UPDATE order_notifications
		SET status = ?, sent_at = ?, attempts = attempts + 1, error_message = NULL, updated_at = ?
		WHERE id = ?`)

	_, err := sqldb.Conn(ctx, r.db).ExecContext(ctx, query,
		entity.NotificationStatusSent, sentAt.UTC(), time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification as sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark sent: %w", err)
	}
	return nil
}

// MarkFailed records a failed attempt
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errorMsg string) error {
	query := r.db.Rebind(`
		UPDATE order_notifications
		SET status = ?, attempts = attempts + 1, error_message = ?, updated_at = ?
		WHERE id = ?`)

	_, err := sqldb.Conn(ctx, r.db).ExecContext(ctx, query,
		entity.NotificationStatusFailed, errorMsg, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification as failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark failed: %w", err)
	}
	return nil
}

// DeleteByOrderNumber removes an order's notification records
func (r *NotificationRepository) DeleteByOrderNumber(ctx context.Context, orderNumber string) (int64, error) {
	res, err := sqldb.Conn(ctx, r.db).ExecContext(ctx,
		r.db.Rebind("DELETE FROM order_notifications WHERE order_number = ?"), orderNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return res.RowsAffected()
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
