package qa

import (
	"context"
	"strings"

	"qaforum/internal/db"
	"qaforum/internal/models"
)

// Viewer identifies who looks at a question: a signed-in user, an anonymous
// browser token, or nobody in particular.
type Viewer struct {
	UserID      int64
	AnonymousID string
}

// identity resolves the deduplication key. The user id wins when both are set.
func (v Viewer) identity() (*int64, *string) {
	if v.UserID != 0 {
		return int64Ptr(v.UserID), nil
	}
	if anon := strings.TrimSpace(v.AnonymousID); anon != "" {
		return nil, &anon
	}
	return nil, nil
}

// RecordView counts a view of a question once per viewer identity and reports
// whether this call was the one that counted. A viewer without identity is
// always counted.
func (s *Service) RecordView(ctx context.Context, questionID int64, viewer Viewer) (bool, error) {
	const op = "record view"
	userID, anonID := viewer.identity()

	var counted bool
	err := s.repo.WithTx(ctx, func(q *db.Queries) error {
		exists, err := q.QuestionExists(ctx, questionID)
		if err != nil {
			return storeErr(op, "question", err)
		}
		if !exists {
			return newError(CodeNotFound, op, "question not found")
		}

		seen, err := q.ViewExists(ctx, questionID, userID, anonID)
		if err != nil {
			return storeErr(op, "view", err)
		}
		if seen {
			return nil
		}
		v := &models.View{QuestionID: questionID, UserID: userID, AnonymousID: anonID, CreatedAt: s.now()}
		if err := q.InsertView(ctx, v); err != nil {
			if db.IsUniqueViolation(err) {
				return nil
			}
			return storeErr(op, "view", err)
		}
		if _, err := q.AdjustQuestionCounter(ctx, questionID, db.QuestionViews, 1); err != nil {
			return storeErr(op, "question", err)
		}
		counted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return counted, nil
}
