package qa

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"qaforum/internal/db"
	"qaforum/internal/models"
)

const (
	minAnswerLen = 10
	maxAnswerLen = 20000
)

// AnswerDetail is an answer with its author and the viewer's own vote.
type AnswerDetail struct {
	*models.Answer
	Author     models.UserSummary `json:"author"`
	ViewerVote *models.VoteType   `json:"viewer_vote,omitempty"`
}

func normalizeAnswerBody(op, body string) (string, error) {
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n < minAnswerLen || n > maxAnswerLen {
		return "", newError(CodeInvalid, op, "answer must be %d-%d characters", minAnswerLen, maxAnswerLen)
	}
	return body, nil
}

// GetAnswers lists a question's answers, accepted first, then by votes, then
// oldest first. viewerID 0 skips the vote overlay.
func (s *Service) GetAnswers(ctx context.Context, questionID, viewerID int64) ([]*AnswerDetail, error) {
	const op = "get answers"
	exists, err := s.repo.QuestionExists(ctx, questionID)
	if err != nil {
		return nil, storeErr(op, "question", err)
	}
	if !exists {
		return nil, newError(CodeNotFound, op, "question not found")
	}

	answers, err := s.repo.GetAnswersByQuestionID(ctx, questionID)
	if err != nil {
		return nil, storeErr(op, "answer", err)
	}

	ids := make([]int64, 0, len(answers))
	authorIDs := make([]int64, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.ID)
		authorIDs = append(authorIDs, a.AuthorID)
	}
	authors, err := s.repo.UserSummaries(ctx, authorIDs)
	if err != nil {
		return nil, storeErr(op, "author", err)
	}
	votes := map[int64]models.VoteType{}
	if viewerID != 0 {
		votes, err = s.repo.VotesByVoter(ctx, models.TargetAnswer, ids, viewerID)
		if err != nil {
			return nil, storeErr(op, "vote", err)
		}
	}

	out := make([]*AnswerDetail, 0, len(answers))
	for _, a := range answers {
		d := &AnswerDetail{Answer: a, Author: authors[a.AuthorID]}
		if v, ok := votes[a.ID]; ok {
			d.ViewerVote = &v
		}
		out = append(out, d)
	}
	return out, nil
}

// CreateAnswer posts an answer. A closed question takes no answers.
func (s *Service) CreateAnswer(ctx context.Context, actor Actor, questionID int64, body string) (*models.Answer, error) {
	const op = "create answer"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	body, err := normalizeAnswerBody(op, body)
	if err != nil {
		return nil, err
	}

	now := s.now()
	answer := &models.Answer{QuestionID: questionID, AuthorID: actor.UserID, Body: body, CreatedAt: now, UpdatedAt: now}
	var questionAuthor int64
	err = s.repo.WithTx(ctx, func(q *db.Queries) error {
		qn, err := q.GetQuestionByID(ctx, questionID)
		if err != nil {
			return storeErr(op, "question", err)
		}
		if qn.IsClosed {
			return newError(CodeInvalidState, op, "question is closed")
		}
		if err := s.checkQuota(ctx, q, op, actor.UserID, func(uq *models.UserQuota) models.ResourceQuota { return uq.Answers }); err != nil {
			return err
		}
		if err := q.CreateAnswer(ctx, answer); err != nil {
			return storeErr(op, "answer", err)
		}
		if _, err := q.AdjustQuestionCounter(ctx, questionID, db.QuestionAnswers, 1); err != nil {
			return storeErr(op, "question", err)
		}
		questionAuthor = qn.AuthorID
		return storeErr(op, "question", q.MarkAnswered(ctx, questionID, now))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("answer created",
		slog.Int64("answer_id", answer.ID),
		slog.Int64("question_id", questionID),
		slog.Int64("author_id", actor.UserID))
	s.notify(ctx, &models.Notification{
		UserID:     questionAuthor,
		Type:       models.NotificationAnswer,
		FromUserID: int64Ptr(actor.UserID),
		QuestionID: int64Ptr(questionID),
		AnswerID:   int64Ptr(answer.ID),
	})
	return answer, nil
}

// UpdateAnswer rewrites an answer's body. Only its author may do it.
func (s *Service) UpdateAnswer(ctx context.Context, actor Actor, id int64, body string) (*models.Answer, error) {
	const op = "update answer"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	body, err := normalizeAnswerBody(op, body)
	if err != nil {
		return nil, err
	}

	var updated *models.Answer
	err = s.repo.WithTx(ctx, func(q *db.Queries) error {
		a, err := q.GetAnswerByID(ctx, id)
		if err != nil {
			return storeErr(op, "answer", err)
		}
		if a.AuthorID != actor.UserID {
			return newError(CodeUnauthorized, op, "only the author may edit this answer")
		}
		now := s.now()
		if err := q.UpdateAnswerBody(ctx, id, body, now); err != nil {
			return storeErr(op, "answer", err)
		}
		if err := q.TouchQuestion(ctx, a.QuestionID, now); err != nil {
			return storeErr(op, "question", err)
		}
		updated, err = q.GetAnswerByID(ctx, id)
		return storeErr(op, "answer", err)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteAnswer removes an answer with its votes and comments. Deleting the
// accepted answer clears the question's pointer; the status is kept.
func (s *Service) DeleteAnswer(ctx context.Context, actor Actor, id int64) error {
	const op = "delete answer"
	if err := requireActor(op, actor); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(q *db.Queries) error {
		a, err := q.GetAnswerByID(ctx, id)
		if err != nil {
			return storeErr(op, "answer", err)
		}
		if a.AuthorID != actor.UserID {
			return newError(CodeUnauthorized, op, "only the author may delete this answer")
		}
		if err := q.ClearAcceptedAnswerIf(ctx, a.QuestionID, id); err != nil {
			return storeErr(op, "question", err)
		}
		if err := q.DeleteAnswer(ctx, id); err != nil {
			return storeErr(op, "answer", err)
		}
		_, err = q.AdjustQuestionCounter(ctx, a.QuestionID, db.QuestionAnswers, -1)
		return storeErr(op, "question", err)
	})
}

// AcceptAnswer marks an answer as the accepted one. Only the question's
// author may accept; a previously accepted answer loses the flag.
func (s *Service) AcceptAnswer(ctx context.Context, actor Actor, answerID int64) (*models.Answer, error) {
	const op = "accept answer"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}

	var accepted *models.Answer
	err := s.repo.WithTx(ctx, func(q *db.Queries) error {
		a, err := q.GetAnswerByID(ctx, answerID)
		if err != nil {
			return storeErr(op, "answer", err)
		}
		qn, err := q.GetQuestionByID(ctx, a.QuestionID)
		if err != nil {
			return storeErr(op, "question", err)
		}
		if qn.AuthorID != actor.UserID {
			return newError(CodeUnauthorized, op, "only the question author may accept an answer")
		}
		if a.IsAccepted {
			return newError(CodeInvalidState, op, "answer is already accepted")
		}

		now := s.now()
		// Снимаем флаг со всех ранее принятых ответов до установки нового
		previous, err := q.AcceptedAnswerIDs(ctx, qn.ID)
		if err != nil {
			return storeErr(op, "answer", err)
		}
		for _, id := range previous {
			if err := q.SetAnswerAccepted(ctx, id, false, now); err != nil {
				return storeErr(op, "answer", err)
			}
		}
		if err := q.SetAnswerAccepted(ctx, answerID, true, now); err != nil {
			return storeErr(op, "answer", err)
		}
		if err := q.SetAcceptedAnswer(ctx, qn.ID, &answerID, now); err != nil {
			return storeErr(op, "question", err)
		}
		accepted, err = q.GetAnswerByID(ctx, answerID)
		return storeErr(op, "answer", err)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("answer accepted", slog.Int64("answer_id", answerID), slog.Int64("question_id", accepted.QuestionID))
	s.notify(ctx, &models.Notification{
		UserID:     accepted.AuthorID,
		Type:       models.NotificationAccepted,
		FromUserID: int64Ptr(actor.UserID),
		QuestionID: int64Ptr(accepted.QuestionID),
		AnswerID:   int64Ptr(accepted.ID),
	})
	return accepted, nil
}
