package repository

import (
	"context"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
)

type CreateNotificationInput struct {
	RecipientID int64
	SenderID    *int64
	Title       string
	Message     string
	Category    string
	RelatedID   *int64
}

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(
	ctx context.Context,
	input CreateNotificationInput,
) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (recipient_id, sender_id, title, message, category, related_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, recipient_id, sender_id, title, message, category, related_id, read_at, created_at
	`
	var notification models.Notification
	err := r.db.QueryRow(
		ctx,
		query,
		input.RecipientID,
		input.SenderID,
		input.Title,
		input.Message,
		input.Category,
		input.RelatedID,
	).Scan(
		&notification.ID,
		&notification.RecipientID,
		&notification.SenderID,
		&notification.Title,
		&notification.Message,
		&notification.Category,
		&notification.RelatedID,
		&notification.ReadAt,
		&notification.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepository) ListByRecipient(
	ctx context.Context,
	recipientID int64,
	limit int,
	offset int,
) ([]models.Notification, error) {
	query := `
		SELECT id, recipient_id, sender_id, title, message, category, related_id, read_at, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var notification models.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.RecipientID,
			&notification.SenderID,
			&notification.Title,
			&notification.Message,
			&notification.Category,
			&notification.RelatedID,
			&notification.ReadAt,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) MarkRead(
	ctx context.Context,
	recipientID int64,
	notificationID int64,
) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE notifications SET read_at = NOW() WHERE id = $1 AND recipient_id = $2 AND read_at IS NULL`,
		notificationID,
		recipientID,
	)
	return err
}
