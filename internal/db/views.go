package db

import (
	"context"
	"fmt"

	"qaforum/internal/models"
)

// ViewExists checks for a view by the same identity. Exactly one of userID
// and anonymousID must be set.
func (q *Queries) ViewExists(ctx context.Context, questionID int64, userID *int64, anonymousID *string) (bool, error) {
	var exists bool
	var err error
	switch {
	case userID != nil:
		err = q.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM views WHERE question_id = ? AND user_id = ?)", questionID, *userID).Scan(&exists)
	case anonymousID != nil:
		err = q.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM views WHERE question_id = ? AND anonymous_id = ?)", questionID, *anonymousID).Scan(&exists)
	default:
		return false, nil
	}
	return exists, err
}

// InsertView stores a view row. A second view by the same identity fails
// with a unique violation.
func (q *Queries) InsertView(ctx context.Context, v *models.View) error {
	res, err := q.db.ExecContext(ctx, "INSERT INTO views (question_id, user_id, anonymous_id, created_at) VALUES (?, ?, ?, ?)",
		v.QuestionID, v.UserID, v.AnonymousID, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert view: %w", err)
	}
	v.ID, err = res.LastInsertId()
	return err
}

// CountViews counts view rows of a question.
func (q *Queries) CountViews(ctx context.Context, questionID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM views WHERE question_id = ?", questionID).Scan(&n)
	return n, err
}
