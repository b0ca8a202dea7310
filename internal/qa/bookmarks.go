package qa

import (
	"context"

	"qaforum/internal/db"
	"qaforum/internal/models"
)

// Bookmark saves a question for the actor. It returns false, without error,
// when the question was already bookmarked.
func (s *Service) Bookmark(ctx context.Context, actor Actor, questionID int64) (bool, error) {
	const op = "bookmark"
	if err := requireActor(op, actor); err != nil {
		return false, err
	}

	var added bool
	err := s.repo.WithTx(ctx, func(q *db.Queries) error {
		exists, err := q.QuestionExists(ctx, questionID)
		if err != nil {
			return storeErr(op, "question", err)
		}
		if !exists {
			return newError(CodeNotFound, op, "question not found")
		}
		already, err := q.BookmarkExists(ctx, questionID, actor.UserID)
		if err != nil || already {
			return storeErr(op, "bookmark", err)
		}
		if err := q.InsertBookmark(ctx, questionID, actor.UserID, s.now()); err != nil {
			if db.IsUniqueViolation(err) {
				return nil
			}
			return storeErr(op, "bookmark", err)
		}
		if _, err := q.AdjustQuestionCounter(ctx, questionID, db.QuestionBookmarks, 1); err != nil {
			return storeErr(op, "question", err)
		}
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// Unbookmark removes the actor's bookmark. It returns false when there was none.
func (s *Service) Unbookmark(ctx context.Context, actor Actor, questionID int64) (bool, error) {
	const op = "unbookmark"
	if err := requireActor(op, actor); err != nil {
		return false, err
	}

	var removed bool
	err := s.repo.WithTx(ctx, func(q *db.Queries) error {
		exists, err := q.QuestionExists(ctx, questionID)
		if err != nil {
			return storeErr(op, "question", err)
		}
		if !exists {
			return newError(CodeNotFound, op, "question not found")
		}
		removed, err = q.DeleteBookmark(ctx, questionID, actor.UserID)
		if err != nil || !removed {
			return storeErr(op, "bookmark", err)
		}
		_, err = q.AdjustQuestionCounter(ctx, questionID, db.QuestionBookmarks, -1)
		return storeErr(op, "question", err)
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// ListBookmarks returns one page of the actor's bookmarked questions.
func (s *Service) ListBookmarks(ctx context.Context, actor Actor, page models.Page) (*models.QuestionPage, error) {
	const op = "list bookmarks"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	page = page.Normalize()
	items, total, err := s.repo.BookmarkedQuestions(ctx, actor.UserID, page)
	if err != nil {
		return nil, storeErr(op, "bookmark", err)
	}
	if err := s.attachTags(ctx, items...); err != nil {
		return nil, storeErr(op, "question", err)
	}
	if items == nil {
		items = []*models.Question{}
	}
	return &models.QuestionPage{Items: items, Total: total, Page: page.Number, PageSize: page.Size}, nil
}
