package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

// NotificationRepository handles student notification records.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository instantiates a notification repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Put upserts a notification. The propagator derives deterministic IDs so a
// retried propagation rewrites the same row instead of duplicating it.
func (r *NotificationRepository) Put(ctx context.Context, notification *models.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, student_id, category, title, body, read, created_at, dispatched_at) VALUES (:id, :student_id, :category, :title, :body, :read, :created_at, :dispatched_at) ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, body = EXCLUDED.body, created_at = EXCLUDED.created_at`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("put notification: %w", err)
	}
	return nil
}

// MarkDispatched stamps delivery time on a notification.
func (r *NotificationRepository) MarkDispatched(ctx context.Context, id string, dispatchedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE notifications SET dispatched_at = $2 WHERE id = $1`, id, dispatchedAt); err != nil {
		return fmt.Errorf("mark notification dispatched: %w", err)
	}
	return nil
}

// DeleteByCategory wipes notifications of a category. Used only by the bulk
// deferment purge.
func (r *NotificationRepository) DeleteByCategory(ctx context.Context, category string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE category = $1`, category); err != nil {
		return fmt.Errorf("delete notifications by category: %w", err)
	}
	return nil
}
