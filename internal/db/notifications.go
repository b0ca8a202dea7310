package db

import (
	"context"
	"fmt"

	"qaforum/internal/models"
)

// CreateNotification creates a new notification
func (q *Queries) CreateNotification(ctx context.Context, n *models.Notification) error {
	res, err := q.db.ExecContext(ctx, `INSERT INTO notifications (user_id, type, from_user_id, question_id, answer_id, created_at, is_read)
        VALUES (?, ?, ?, ?, ?, ?, 0)`, n.UserID, n.Type, n.FromUserID, n.QuestionID, n.AnswerID, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	n.ID, err = res.LastInsertId()
	return err
}

// GetNotificationsByUser retrieves notifications for a user
func (q *Queries) GetNotificationsByUser(ctx context.Context, userID int64) ([]*models.Notification, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, user_id, type, from_user_id, question_id, answer_id, created_at, is_read
        FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notifs []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.FromUserID, &n.QuestionID, &n.AnswerID, &n.CreatedAt, &n.IsRead); err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

// MarkNotificationRead marks a user's notification as read
func (q *Queries) MarkNotificationRead(ctx context.Context, userID, notificationID int64) error {
	res, err := q.db.ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?", notificationID, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return expectOne(res)
}
