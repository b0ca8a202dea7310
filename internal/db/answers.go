package db

import (
	"context"
	"fmt"
	"time"

	"qaforum/internal/models"
)

const answerColumns = `id, question_id, author_id, body, vote_count, is_accepted, accepted_at,
    comment_count, created_at, updated_at, edited_at`

func scanAnswer(row interface{ Scan(...any) error }) (*models.Answer, error) {
	a := &models.Answer{}
	err := row.Scan(&a.ID, &a.QuestionID, &a.AuthorID, &a.Body, &a.VoteCount, &a.IsAccepted, &a.AcceptedAt,
		&a.CommentCount, &a.CreatedAt, &a.UpdatedAt, &a.EditedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// CreateAnswer inserts an answer row.
func (q *Queries) CreateAnswer(ctx context.Context, a *models.Answer) error {
	res, err := q.db.ExecContext(ctx, `INSERT INTO answers (question_id, author_id, body, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)`, a.QuestionID, a.AuthorID, a.Body, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// GetAnswerByID returns an answer or ErrNotFound.
func (q *Queries) GetAnswerByID(ctx context.Context, id int64) (*models.Answer, error) {
	return scanAnswer(q.db.QueryRowContext(ctx, "SELECT "+answerColumns+" FROM answers WHERE id = ?", id))
}

// GetAnswersByQuestionID returns the answers of a question: accepted first,
// then by votes, then oldest first.
func (q *Queries) GetAnswersByQuestionID(ctx context.Context, questionID int64) ([]*models.Answer, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT "+answerColumns+` FROM answers
        WHERE question_id = ?
        ORDER BY is_accepted DESC, vote_count DESC, created_at ASC, id ASC`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []*models.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// AcceptedAnswerIDs lists answers of a question flagged as accepted.
func (q *Queries) AcceptedAnswerIDs(ctx context.Context, questionID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT id FROM answers WHERE question_id = ? AND is_accepted = 1", questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateAnswerBody rewrites an answer's body.
func (q *Queries) UpdateAnswerBody(ctx context.Context, id int64, body string, at time.Time) error {
	res, err := q.db.ExecContext(ctx, "UPDATE answers SET body = ?, updated_at = ?, edited_at = ? WHERE id = ?", body, at, at, id)
	if err != nil {
		return fmt.Errorf("update answer: %w", err)
	}
	return expectOne(res)
}

// SetAnswerAccepted flags or unflags an answer as accepted.
func (q *Queries) SetAnswerAccepted(ctx context.Context, id int64, accepted bool, at time.Time) error {
	var acceptedAt *time.Time
	if accepted {
		acceptedAt = &at
	}
	res, err := q.db.ExecContext(ctx, "UPDATE answers SET is_accepted = ?, accepted_at = ?, updated_at = ? WHERE id = ?",
		accepted, acceptedAt, at, id)
	if err != nil {
		return fmt.Errorf("set answer accepted: %w", err)
	}
	return expectOne(res)
}

// AdjustAnswerVotes applies a relative delta to an answer's vote count and
// returns the value after the update.
func (q *Queries) AdjustAnswerVotes(ctx context.Context, id int64, delta int) (int, error) {
	var value int
	err := q.db.QueryRowContext(ctx, "UPDATE answers SET vote_count = vote_count + ? WHERE id = ? RETURNING vote_count", delta, id).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("adjust answer votes: %w", notFound(err))
	}
	return value, nil
}

// AdjustAnswerComments applies a relative delta to an answer's comment count.
func (q *Queries) AdjustAnswerComments(ctx context.Context, id int64, delta int) error {
	res, err := q.db.ExecContext(ctx, "UPDATE answers SET comment_count = comment_count + ? WHERE id = ?", delta, id)
	if err != nil {
		return fmt.Errorf("adjust answer comments: %w", err)
	}
	return expectOne(res)
}

// DeleteAnswer deletes an answer with its votes and comments.
func (q *Queries) DeleteAnswer(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM votes WHERE target_type = 'answer' AND target_id = ?", id); err != nil {
		return fmt.Errorf("delete answer votes: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, "DELETE FROM comments WHERE answer_id = ?", id); err != nil {
		return fmt.Errorf("delete answer comments: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, "DELETE FROM notifications WHERE answer_id = ?", id); err != nil {
		return fmt.Errorf("delete answer notifications: %w", err)
	}
	res, err := q.db.ExecContext(ctx, "DELETE FROM answers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}
	return expectOne(res)
}

// CountAnswersByAuthor counts a user's live answers.
func (q *Queries) CountAnswersByAuthor(ctx context.Context, userID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM answers WHERE author_id = ?", userID).Scan(&n)
	return n, err
}

// CountAnswersByQuestion counts the answer rows of a question.
func (q *Queries) CountAnswersByQuestion(ctx context.Context, questionID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM answers WHERE question_id = ?", questionID).Scan(&n)
	return n, err
}
