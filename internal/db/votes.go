package db

import (
	"context"
	"fmt"
	"time"

	"qaforum/internal/models"
)

// GetVote returns a voter's vote on a target or ErrNotFound.
func (q *Queries) GetVote(ctx context.Context, target models.TargetType, targetID, voterID int64) (*models.Vote, error) {
	v := &models.Vote{}
	err := q.db.QueryRowContext(ctx, `SELECT id, target_type, target_id, voter_id, type, created_at, updated_at
        FROM votes WHERE target_type = ? AND target_id = ? AND voter_id = ?`, target, targetID, voterID).
		Scan(&v.ID, &v.TargetType, &v.TargetID, &v.VoterID, &v.Type, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

// InsertVote creates a vote. A concurrent vote by the same voter surfaces as
// a unique violation.
func (q *Queries) InsertVote(ctx context.Context, v *models.Vote) error {
	res, err := q.db.ExecContext(ctx, `INSERT INTO votes (target_type, target_id, voter_id, type, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)`, v.TargetType, v.TargetID, v.VoterID, v.Type, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}
	v.ID, err = res.LastInsertId()
	return err
}

// UpdateVoteType switches a vote between up and down.
func (q *Queries) UpdateVoteType(ctx context.Context, id int64, t models.VoteType, at time.Time) error {
	res, err := q.db.ExecContext(ctx, "UPDATE votes SET type = ?, updated_at = ? WHERE id = ?", t, at, id)
	if err != nil {
		return fmt.Errorf("update vote: %w", err)
	}
	return expectOne(res)
}

// DeleteVote removes a vote.
func (q *Queries) DeleteVote(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM votes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}
	return expectOne(res)
}

// SumVotes recomputes a target's score from its vote rows. The engine never
// uses it on the write path; it exists for audits and tests.
func (q *Queries) SumVotes(ctx context.Context, target models.TargetType, targetID int64) (int, error) {
	var sum int
	err := q.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(type), 0) FROM votes WHERE target_type = ? AND target_id = ?", target, targetID).Scan(&sum)
	return sum, err
}

// VotesByVoter returns the voter's vote type for each of the given targets.
func (q *Queries) VotesByVoter(ctx context.Context, target models.TargetType, targetIDs []int64, voterID int64) (map[int64]models.VoteType, error) {
	out := make(map[int64]models.VoteType, len(targetIDs))
	if len(targetIDs) == 0 {
		return out, nil
	}
	placeholders, args := int64List(targetIDs)
	args = append([]any{target, voterID}, args...)
	rows, err := q.db.QueryContext(ctx, "SELECT target_id, type FROM votes WHERE target_type = ? AND voter_id = ? AND target_id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var t models.VoteType
		if err := rows.Scan(&id, &t); err != nil {
			return nil, err
		}
		out[id] = t
	}
	return out, rows.Err()
}

// AdjustTargetVotes applies delta to the vote counter of a question or answer.
func (q *Queries) AdjustTargetVotes(ctx context.Context, target models.TargetType, targetID int64, delta int) (int, error) {
	switch target {
	case models.TargetQuestion:
		return q.AdjustQuestionCounter(ctx, targetID, QuestionVotes, delta)
	case models.TargetAnswer:
		return q.AdjustAnswerVotes(ctx, targetID, delta)
	}
	return 0, fmt.Errorf("unknown vote target %q", target)
}

// TargetVoteCount reads the stored vote counter of a question or answer.
func (q *Queries) TargetVoteCount(ctx context.Context, target models.TargetType, targetID int64) (int, error) {
	var query string
	switch target {
	case models.TargetQuestion:
		query = "SELECT vote_count FROM questions WHERE id = ?"
	case models.TargetAnswer:
		query = "SELECT vote_count FROM answers WHERE id = ?"
	default:
		return 0, fmt.Errorf("unknown vote target %q", target)
	}
	var n int
	if err := q.db.QueryRowContext(ctx, query, targetID).Scan(&n); err != nil {
		return 0, notFound(err)
	}
	return n, nil
}
