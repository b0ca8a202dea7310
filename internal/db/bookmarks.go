package db

import (
	"context"
	"fmt"
	"time"

	"qaforum/internal/models"
)

// BookmarkExists checks whether the user bookmarked the question.
func (q *Queries) BookmarkExists(ctx context.Context, questionID, userID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM bookmarks WHERE question_id = ? AND user_id = ?)", questionID, userID).Scan(&exists)
	return exists, err
}

// InsertBookmark creates a bookmark. A duplicate surfaces as a unique violation.
func (q *Queries) InsertBookmark(ctx context.Context, questionID, userID int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, "INSERT INTO bookmarks (question_id, user_id, created_at) VALUES (?, ?, ?)", questionID, userID, at)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

// DeleteBookmark removes a bookmark and reports whether one existed.
func (q *Queries) DeleteBookmark(ctx context.Context, questionID, userID int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, "DELETE FROM bookmarks WHERE question_id = ? AND user_id = ?", questionID, userID)
	if err != nil {
		return false, fmt.Errorf("delete bookmark: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CountBookmarks counts bookmark rows of a question.
func (q *Queries) CountBookmarks(ctx context.Context, questionID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookmarks WHERE question_id = ?", questionID).Scan(&n)
	return n, err
}

// BookmarkedQuestions returns one page of a user's bookmarked questions, newest bookmark first.
func (q *Queries) BookmarkedQuestions(ctx context.Context, userID int64, page models.Page) ([]*models.Question, int, error) {
	var total int
	if err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookmarks WHERE user_id = ?", userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookmarks: %w", err)
	}
	page = page.Normalize()
	items, err := q.queryQuestions(ctx, "SELECT "+questionColumns+` FROM questions q
        JOIN bookmarks b ON b.question_id = q.id
        WHERE b.user_id = ?
        ORDER BY b.created_at DESC, b.id DESC
        LIMIT ? OFFSET ?`, userID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list bookmarks: %w", err)
	}
	return items, total, nil
}
