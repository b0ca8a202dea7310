package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"qaforum/internal/models"
)

// QuestionCounter names a denormalized counter column on questions.
type QuestionCounter string

const (
	QuestionVotes     QuestionCounter = "vote_count"
	QuestionViews     QuestionCounter = "view_count"
	QuestionBookmarks QuestionCounter = "bookmark_count"
	QuestionAnswers   QuestionCounter = "answer_count"
)

func (c QuestionCounter) valid() bool {
	switch c {
	case QuestionVotes, QuestionViews, QuestionBookmarks, QuestionAnswers:
		return true
	}
	return false
}

const questionColumns = `q.id, q.author_id, q.title, q.body, q.slug, q.category_id, q.status,
    q.vote_count, q.view_count, q.bookmark_count, q.answer_count, q.accepted_answer_id,
    q.is_closed, q.close_reason, q.closed_at, q.bounty_amount, q.bounty_expires_at,
    q.created_at, q.updated_at, q.edited_at, q.last_activity_at`

func scanQuestion(row interface{ Scan(...any) error }) (*models.Question, error) {
	qn := &models.Question{}
	err := row.Scan(&qn.ID, &qn.AuthorID, &qn.Title, &qn.Body, &qn.Slug, &qn.CategoryID, &qn.Status,
		&qn.VoteCount, &qn.ViewCount, &qn.BookmarkCount, &qn.AnswerCount, &qn.AcceptedAnswerID,
		&qn.IsClosed, &qn.CloseReason, &qn.ClosedAt, &qn.BountyAmount, &qn.BountyExpiresAt,
		&qn.CreatedAt, &qn.UpdatedAt, &qn.EditedAt, &qn.LastActivityAt)
	if err != nil {
		return nil, notFound(err)
	}
	return qn, nil
}

// CreateQuestion inserts a question row. Tags and counters are handled by the caller
// inside the same transaction.
func (q *Queries) CreateQuestion(ctx context.Context, qn *models.Question) error {
	if qn.Status == "" {
		qn.Status = models.StatusOpen
	}
	res, err := q.db.ExecContext(ctx, `INSERT INTO questions
        (author_id, title, body, slug, category_id, status, created_at, updated_at, last_activity_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		qn.AuthorID, qn.Title, qn.Body, qn.Slug, qn.CategoryID, qn.Status, qn.CreatedAt, qn.UpdatedAt, qn.LastActivityAt)
	if err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	qn.ID, err = res.LastInsertId()
	return err
}

// SlugTaken reports whether a question already uses slug.
func (q *Queries) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM questions WHERE slug = ?)", slug).Scan(&exists)
	return exists, err
}

// GetQuestionByID retrieves a question by ID, without tags.
func (q *Queries) GetQuestionByID(ctx context.Context, id int64) (*models.Question, error) {
	return scanQuestion(q.db.QueryRowContext(ctx, "SELECT "+questionColumns+" FROM questions q WHERE q.id = ?", id))
}

// GetQuestionBySlug retrieves a question by slug, without tags.
func (q *Queries) GetQuestionBySlug(ctx context.Context, slug string) (*models.Question, error) {
	return scanQuestion(q.db.QueryRowContext(ctx, "SELECT "+questionColumns+" FROM questions q WHERE q.slug = ?", slug))
}

// QuestionExists checks if a question with the specified ID exists.
func (q *Queries) QuestionExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM questions WHERE id = ?)", id).Scan(&exists)
	return exists, err
}

// ListQuestions returns one page of questions matching f, and the total match count.
func (q *Queries) ListQuestions(ctx context.Context, f models.QuestionFilter, page models.Page, now time.Time) ([]*models.Question, int, error) {
	var where []string
	var args []any

	if f.Status != nil {
		where = append(where, "q.status = ?")
		args = append(args, *f.Status)
	}
	if f.CategoryID != nil {
		where = append(where, "q.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.AuthorID != nil {
		where = append(where, "q.author_id = ?")
		args = append(args, *f.AuthorID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		where = append(where, `(q.title LIKE ? ESCAPE '\' OR q.body LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if f.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM question_tags qt WHERE qt.question_id = q.id AND qt.tag = ?)")
		args = append(args, strings.ToLower(f.Tag))
	}
	if f.HasAccepted != nil {
		if *f.HasAccepted {
			where = append(where, "q.accepted_answer_id IS NOT NULL")
		} else {
			where = append(where, "q.accepted_answer_id IS NULL")
		}
	}
	if f.HasActiveBounty != nil {
		if *f.HasActiveBounty {
			where = append(where, "(q.bounty_amount > 0 AND q.bounty_expires_at > ?)")
		} else {
			where = append(where, "NOT (q.bounty_amount > 0 AND q.bounty_expires_at IS NOT NULL AND q.bounty_expires_at > ?)")
		}
		args = append(args, now.UTC())
	}

	var order string
	switch f.Sort {
	case models.SortVotes:
		order = "q.vote_count DESC, q.created_at DESC"
	case models.SortUnanswered:
		where = append(where, "q.answer_count = 0")
		order = "q.created_at DESC"
	case models.SortMostActive:
		order = "q.last_activity_at DESC"
	case models.SortMostViewed:
		order = "q.view_count DESC, q.created_at DESC"
	default:
		order = "q.created_at DESC"
	}
	order += ", q.id DESC"

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions q"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", err)
	}

	page = page.Normalize()
	query := "SELECT " + questionColumns + " FROM questions q" + clause + " ORDER BY " + order + " LIMIT ? OFFSET ?"
	items, err := q.queryQuestions(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}
	return items, total, nil
}

// RelatedQuestions returns other questions sharing the category or at least one tag.
func (q *Queries) RelatedQuestions(ctx context.Context, qn *models.Question, limit int) ([]*models.Question, error) {
	query := "SELECT " + questionColumns + ` FROM questions q
        WHERE q.id != ? AND (
            (? IS NOT NULL AND q.category_id = ?)
            OR EXISTS (
                SELECT 1 FROM question_tags a
                JOIN question_tags b ON a.tag = b.tag
                WHERE a.question_id = q.id AND b.question_id = ?
            )
        )
        ORDER BY q.vote_count DESC, q.view_count DESC, q.id DESC
        LIMIT ?`
	return q.queryQuestions(ctx, query, qn.ID, qn.CategoryID, qn.CategoryID, qn.ID, limit)
}

// TrendingQuestions returns questions created at or after since, ranked by
// 2*votes + views/10 with ties going to the newer question.
func (q *Queries) TrendingQuestions(ctx context.Context, since time.Time, limit int) ([]*models.Question, error) {
	query := "SELECT " + questionColumns + ` FROM questions q
        WHERE q.created_at >= ?
        ORDER BY (2 * q.vote_count + q.view_count / 10.0) DESC, q.created_at DESC, q.id DESC
        LIMIT ?`
	return q.queryQuestions(ctx, query, since.UTC(), limit)
}

func (q *Queries) queryQuestions(ctx context.Context, query string, args ...any) ([]*models.Question, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Question
	for rows.Next() {
		qn, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, qn)
	}
	return out, rows.Err()
}

// UpdateQuestionContent rewrites the editable fields of a question.
func (q *Queries) UpdateQuestionContent(ctx context.Context, id int64, title, body string, categoryID *int64, editedAt time.Time) error {
	res, err := q.db.ExecContext(ctx, `UPDATE questions
        SET title = ?, body = ?, category_id = ?, updated_at = ?, edited_at = ?, last_activity_at = ?
        WHERE id = ?`, title, body, categoryID, editedAt, editedAt, editedAt, id)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return expectOne(res)
}

// AdjustQuestionCounter applies a relative delta to one counter column and
// returns the value after the update.
func (q *Queries) AdjustQuestionCounter(ctx context.Context, id int64, counter QuestionCounter, delta int) (int, error) {
	if !counter.valid() {
		return 0, fmt.Errorf("unknown question counter %q", counter)
	}
	var value int
	err := q.db.QueryRowContext(ctx,
		"UPDATE questions SET "+string(counter)+" = "+string(counter)+" + ? WHERE id = ? RETURNING "+string(counter),
		delta, id).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("adjust %s: %w", counter, notFound(err))
	}
	return value, nil
}

// MarkAnswered flips an open question to answered and records activity.
// Answered and closed questions keep their status.
func (q *Queries) MarkAnswered(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE questions
        SET status = CASE WHEN status = 'open' THEN 'answered' ELSE status END,
            last_activity_at = ?, updated_at = ?
        WHERE id = ?`, at, at, id)
	if err != nil {
		return fmt.Errorf("mark answered: %w", err)
	}
	return nil
}

// TouchQuestion records activity on a question.
func (q *Queries) TouchQuestion(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, "UPDATE questions SET last_activity_at = ? WHERE id = ?", at, id)
	return err
}

// SetAcceptedAnswer points the question at answerID, or clears the pointer when nil.
func (q *Queries) SetAcceptedAnswer(ctx context.Context, questionID int64, answerID *int64, at time.Time) error {
	res, err := q.db.ExecContext(ctx, "UPDATE questions SET accepted_answer_id = ?, updated_at = ? WHERE id = ?", answerID, at, questionID)
	if err != nil {
		return fmt.Errorf("set accepted answer: %w", err)
	}
	return expectOne(res)
}

// ClearAcceptedAnswerIf clears the pointer only when it still references answerID.
func (q *Queries) ClearAcceptedAnswerIf(ctx context.Context, questionID, answerID int64) error {
	_, err := q.db.ExecContext(ctx, "UPDATE questions SET accepted_answer_id = NULL WHERE id = ? AND accepted_answer_id = ?", questionID, answerID)
	if err != nil {
		return fmt.Errorf("clear accepted answer: %w", err)
	}
	return nil
}

// CloseQuestion marks a question closed. Answers are left untouched.
func (q *Queries) CloseQuestion(ctx context.Context, id int64, reason string, at time.Time) error {
	res, err := q.db.ExecContext(ctx, `UPDATE questions
        SET is_closed = 1, close_reason = ?, closed_at = ?, status = 'closed', updated_at = ?
        WHERE id = ?`, reason, at, at, id)
	if err != nil {
		return fmt.Errorf("close question: %w", err)
	}
	return expectOne(res)
}

// SetBounty attaches a bounty to a question.
func (q *Queries) SetBounty(ctx context.Context, id int64, amount int, expiresAt, at time.Time) error {
	res, err := q.db.ExecContext(ctx, "UPDATE questions SET bounty_amount = ?, bounty_expires_at = ?, updated_at = ? WHERE id = ?",
		amount, expiresAt, at, id)
	if err != nil {
		return fmt.Errorf("set bounty: %w", err)
	}
	return expectOne(res)
}

// DeleteQuestion deletes a question and every row that hangs off it.
// Counters on categories and tags are the caller's business.
func (q *Queries) DeleteQuestion(ctx context.Context, id int64) error {
	// Order is important due to foreign keys
	stmts := []string{
		"DELETE FROM votes WHERE target_type = 'answer' AND target_id IN (SELECT id FROM answers WHERE question_id = ?)",
		"DELETE FROM comments WHERE answer_id IN (SELECT id FROM answers WHERE question_id = ?)",
		"DELETE FROM votes WHERE target_type = 'question' AND target_id = ?",
		"UPDATE questions SET accepted_answer_id = NULL WHERE id = ?",
		"DELETE FROM answers WHERE question_id = ?",
		"DELETE FROM bookmarks WHERE question_id = ?",
		"DELETE FROM views WHERE question_id = ?",
		"DELETE FROM notifications WHERE question_id = ?",
		"DELETE FROM question_tags WHERE question_id = ?",
	}
	for _, stmt := range stmts {
		if _, err := q.db.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
	}
	res, err := q.db.ExecContext(ctx, "DELETE FROM questions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return expectOne(res)
}

// CountQuestionsByAuthor counts a user's live questions.
func (q *Queries) CountQuestionsByAuthor(ctx context.Context, userID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions WHERE author_id = ?", userID).Scan(&n)
	return n, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
