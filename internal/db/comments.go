package db

import (
	"context"
	"fmt"
	"time"

	"qaforum/internal/models"
)

// CreateComment creates a new comment on an answer.
func (q *Queries) CreateComment(ctx context.Context, c *models.Comment) error {
	res, err := q.db.ExecContext(ctx, "INSERT INTO comments (answer_id, author_id, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		c.AnswerID, c.AuthorID, c.Body, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// GetCommentsByAnswerID returns comments for an answer, oldest first.
func (q *Queries) GetCommentsByAnswerID(ctx context.Context, answerID int64) ([]*models.Comment, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, answer_id, author_id, body, created_at, updated_at
        FROM comments WHERE answer_id = ? ORDER BY created_at ASC, id ASC`, answerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.AnswerID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// GetCommentByID returns a comment by ID
func (q *Queries) GetCommentByID(ctx context.Context, commentID int64) (*models.Comment, error) {
	c := &models.Comment{}
	err := q.db.QueryRowContext(ctx, "SELECT id, answer_id, author_id, body, created_at, updated_at FROM comments WHERE id = ?", commentID).
		Scan(&c.ID, &c.AnswerID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// UpdateComment updates the comment text and updated_at
func (q *Queries) UpdateComment(ctx context.Context, commentID int64, body string, at time.Time) error {
	res, err := q.db.ExecContext(ctx, "UPDATE comments SET body = ?, updated_at = ? WHERE id = ?", body, at, commentID)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return expectOne(res)
}

// DeleteComment deletes a comment by ID
func (q *Queries) DeleteComment(ctx context.Context, commentID int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return expectOne(res)
}
