package qa

import (
	"context"
	"errors"
	"log/slog"

	"qaforum/internal/db"
	"qaforum/internal/models"
)

// VoteQuestion toggles the actor's vote on a question and returns the
// question's vote count after the change.
func (s *Service) VoteQuestion(ctx context.Context, actor Actor, questionID int64, t models.VoteType) (int, error) {
	return s.vote(ctx, "vote question", actor, models.TargetQuestion, questionID, t)
}

// VoteAnswer toggles the actor's vote on an answer and returns the answer's
// vote count after the change. Voting on one's own answer is allowed.
func (s *Service) VoteAnswer(ctx context.Context, actor Actor, answerID int64, t models.VoteType) (int, error) {
	return s.vote(ctx, "vote answer", actor, models.TargetAnswer, answerID, t)
}

func (s *Service) vote(ctx context.Context, op string, actor Actor, target models.TargetType, targetID int64, t models.VoteType) (int, error) {
	if err := requireActor(op, actor); err != nil {
		return 0, err
	}
	if !t.Valid() {
		return 0, newError(CodeInvalid, op, "vote type must be +1 or -1")
	}

	var count int
	err := s.repo.WithTx(ctx, func(q *db.Queries) error {
		// Проверяем, что цель голоса существует
		if _, err := q.TargetVoteCount(ctx, target, targetID); err != nil {
			return storeErr(op, string(target), err)
		}
		delta, err := s.applyVote(ctx, q, target, targetID, actor.UserID, t)
		if errors.Is(err, errVoteRace) {
			delta, err = s.applyVote(ctx, q, target, targetID, actor.UserID, t)
		}
		if err != nil {
			return storeErr(op, "vote", err)
		}
		count, err = q.AdjustTargetVotes(ctx, target, targetID, delta)
		return storeErr(op, string(target), err)
	})
	if err != nil {
		return 0, err
	}

	s.log.Debug("vote applied",
		slog.String("target", string(target)),
		slog.Int64("target_id", targetID),
		slog.Int64("voter_id", actor.UserID),
		slog.Int("vote_count", count))
	return count, nil
}

var errVoteRace = errors.New("vote inserted concurrently")

// applyVote brings the voter's row to its next state and returns the counter
// delta: the old contribution is taken away, the new one added.
//
//	no vote      -> insert t,  +t
//	same type    -> delete,    -old
//	other type   -> update t,  t-old
func (s *Service) applyVote(ctx context.Context, q *db.Queries, target models.TargetType, targetID, voterID int64, t models.VoteType) (int, error) {
	existing, err := q.GetVote(ctx, target, targetID, voterID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return 0, err
	}
	now := s.now()

	if existing == nil {
		v := &models.Vote{TargetType: target, TargetID: targetID, VoterID: voterID, Type: t, CreatedAt: now, UpdatedAt: now}
		if err := q.InsertVote(ctx, v); err != nil {
			if db.IsUniqueViolation(err) {
				return 0, errVoteRace
			}
			return 0, err
		}
		return int(t), nil
	}

	if existing.Type == t {
		if err := q.DeleteVote(ctx, existing.ID); err != nil {
			return 0, err
		}
		return -int(existing.Type), nil
	}

	if err := q.UpdateVoteType(ctx, existing.ID, t, now); err != nil {
		return 0, err
	}
	return int(t) - int(existing.Type), nil
}
