package qa

import (
	"context"
	"strings"
	"unicode/utf8"

	"qaforum/internal/db"
	"qaforum/internal/models"
)

const (
	minCommentLen = 2
	maxCommentLen = 1000
)

func normalizeComment(op, body string) (string, error) {
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n < minCommentLen || n > maxCommentLen {
		return "", newError(CodeInvalid, op, "comment must be %d-%d characters", minCommentLen, maxCommentLen)
	}
	return body, nil
}

// ListComments returns an answer's comments, oldest first.
func (s *Service) ListComments(ctx context.Context, answerID int64) ([]*models.Comment, error) {
	const op = "list comments"
	if _, err := s.repo.GetAnswerByID(ctx, answerID); err != nil {
		return nil, storeErr(op, "answer", err)
	}
	comments, err := s.repo.GetCommentsByAnswerID(ctx, answerID)
	if err != nil {
		return nil, storeErr(op, "comment", err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}

// AddComment comments on an answer and notifies the answer's author.
func (s *Service) AddComment(ctx context.Context, actor Actor, answerID int64, body string) (*models.Comment, error) {
	const op = "add comment"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	body, err := normalizeComment(op, body)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &models.Comment{AnswerID: answerID, AuthorID: actor.UserID, Body: body, CreatedAt: now, UpdatedAt: now}
	var answer *models.Answer
	err = s.repo.WithTx(ctx, func(q *db.Queries) error {
		var err error
		answer, err = q.GetAnswerByID(ctx, answerID)
		if err != nil {
			return storeErr(op, "answer", err)
		}
		if err := q.CreateComment(ctx, c); err != nil {
			return storeErr(op, "comment", err)
		}
		if err := q.AdjustAnswerComments(ctx, answerID, 1); err != nil {
			return storeErr(op, "answer", err)
		}
		return storeErr(op, "question", q.TouchQuestion(ctx, answer.QuestionID, now))
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &models.Notification{
		UserID:     answer.AuthorID,
		Type:       models.NotificationComment,
		FromUserID: int64Ptr(actor.UserID),
		QuestionID: int64Ptr(answer.QuestionID),
		AnswerID:   int64Ptr(answer.ID),
	})
	return c, nil
}

// UpdateComment rewrites a comment. Only its author may do it.
func (s *Service) UpdateComment(ctx context.Context, actor Actor, id int64, body string) (*models.Comment, error) {
	const op = "update comment"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	body, err := normalizeComment(op, body)
	if err != nil {
		return nil, err
	}

	var updated *models.Comment
	err = s.repo.WithTx(ctx, func(q *db.Queries) error {
		c, err := q.GetCommentByID(ctx, id)
		if err != nil {
			return storeErr(op, "comment", err)
		}
		if c.AuthorID != actor.UserID {
			return newError(CodeUnauthorized, op, "only the author may edit this comment")
		}
		if err := q.UpdateComment(ctx, id, body, s.now()); err != nil {
			return storeErr(op, "comment", err)
		}
		updated, err = q.GetCommentByID(ctx, id)
		return storeErr(op, "comment", err)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteComment removes a comment. Only its author may do it.
func (s *Service) DeleteComment(ctx context.Context, actor Actor, id int64) error {
	const op = "delete comment"
	if err := requireActor(op, actor); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(q *db.Queries) error {
		c, err := q.GetCommentByID(ctx, id)
		if err != nil {
			return storeErr(op, "comment", err)
		}
		if c.AuthorID != actor.UserID {
			return newError(CodeUnauthorized, op, "only the author may delete this comment")
		}
		if err := q.DeleteComment(ctx, id); err != nil {
			return storeErr(op, "comment", err)
		}
		return storeErr(op, "answer", q.AdjustAnswerComments(ctx, c.AnswerID, -1))
	})
}
