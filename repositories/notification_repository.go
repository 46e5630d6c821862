package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adilzhm/meetmate/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id int) (*models.Notification, error)
	ListByUser(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID int) (int, error)
	ExistsForRequest(ctx context.Context, userID int, nType models.NotificationType, requestID int) (bool, error)
	MarkRead(ctx context.Context, id int) error
	MarkAllRead(ctx context.Context, userID int) error
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, notification_type, title, message, related_request_id, related_user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_read, created_at`

	err := r.db.QueryRowContext(ctx, query,
		n.UserID, n.Type, n.Title, n.Message, n.RelatedRequestID, n.RelatedUserID,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

const notificationColumns = `id, user_id, notification_type, title, message, is_read, related_request_id, related_user_id, created_at`

func (r *postgresNotificationRepository) GetByID(ctx context.Context, id int) (*models.Notification, error) {
	n := &models.Notification{}
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1`, notificationColumns), id,
	).Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.RelatedRequestID, &n.RelatedUserID, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}
	return n, nil
}

func (r *postgresNotificationRepository) ListByUser(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE user_id = $1`, notificationColumns)
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.RelatedRequestID, &n.RelatedUserID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *postgresNotificationRepository) CountUnread(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// ExistsForRequest проверяет, получал ли пользователь уведомление этого
// типа по заявке. Нужна для идемпотентных напоминаний.
func (r *postgresNotificationRepository) ExistsForRequest(ctx context.Context, userID int, nType models.NotificationType, requestID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND notification_type = $2 AND related_request_id = $3
		)`, userID, nType, requestID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check notification existence: %w", err)
	}
	return exists, nil
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return checkAffectedRows(result, ErrNotificationNotFound)
}

func (r *postgresNotificationRepository) MarkAllRead(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return nil
}
