package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "recipientID", n.RecipientID, "type", n.Type, "title", n.Title)

	if n.Attributes == nil {
		n.Attributes = map[string]string{}
	}
	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to marshal attributes")
		return err
	}
	logger.Debug("Notification attributes marshaled", "attributesJSON", string(attrs))

	query := `INSERT INTO notifications (id, recipient_id, title, message, type, is_read, attributes, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	logger.DatabaseCall("INSERT", "notifications", "recipientID", n.RecipientID)

	if n.CreatedOn.IsZero() {
		n.CreatedOn = time.Now()
	}
	_, err = r.db.ExecContext(ctx, query, n.ID, n.RecipientID, n.Title, n.Message, n.Type, n.IsRead, attrs, n.CreatedOn)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "recipientID", n.RecipientID)
	} else {
		logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	}
	return err
}

func (r *notificationRepository) List(ctx context.Context, recipientID string, limit, offset int32) ([]domain.Notification, int32, error) {
	var count int32
	countQuery := `SELECT count(*) FROM notifications WHERE recipient_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, recipientID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, recipient_id, title, message, type, is_read, attributes, created_on
	          FROM notifications WHERE recipient_id = $1 ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var attrs []byte
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message, &n.Type, &n.IsRead, &attrs, &n.CreatedOn); err != nil {
			return nil, 0, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
				return nil, 0, err
			}
		}
		notes = append(notes, n)
	}
	return notes, count, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int32, error) {
	var count int32
	query := `SELECT count(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`
	err := r.db.QueryRowContext(ctx, query, recipientID).Scan(&count)
	return count, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, recipientID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, recipientID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *notificationRepository) DeleteAll(ctx context.Context, recipientID string) (int64, error) {
	query := `DELETE FROM notifications WHERE recipient_id = $1`
	logger.DatabaseCall("DELETE", "notifications", "recipientID", recipientID)
	result, err := r.db.ExecContext(ctx, query, recipientID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
