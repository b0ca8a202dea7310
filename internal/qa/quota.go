package qa

import (
	"context"

	"qaforum/internal/db"
	"qaforum/internal/models"
)

// EvaluateQuota compares live post counts with the role's limits. Roles
// missing from the table, and negative limits, are unlimited.
func EvaluateQuota(table models.QuotaTable, userID int64, role models.Role, questions, answers int) *models.UserQuota {
	limit, capped := table[role]
	return &models.UserQuota{
		UserID:    userID,
		Role:      role,
		Questions: resourceQuota(questions, limit.Questions, capped),
		Answers:   resourceQuota(answers, limit.Answers, capped),
	}
}

func resourceQuota(used, limit int, capped bool) models.ResourceQuota {
	if !capped || limit < 0 {
		return models.ResourceQuota{Used: used, Limit: -1, Unlimited: true, Remaining: -1}
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return models.ResourceQuota{Used: used, Limit: limit, Remaining: remaining}
}

// GetUserQuota computes a user's quota from their role and live counts.
//
// The quota is a gate for the API boundary: CreateQuestion and CreateAnswer
// only check it themselves when the service runs with EnforceQuota.
func (s *Service) GetUserQuota(ctx context.Context, userID int64) (*models.UserQuota, error) {
	const op = "get user quota"
	return s.userQuota(ctx, s.repo.Queries, op, userID)
}

func (s *Service) userQuota(ctx context.Context, q *db.Queries, op string, userID int64) (*models.UserQuota, error) {
	user, err := q.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(op, "user", err)
	}
	questions, err := q.CountQuestionsByAuthor(ctx, userID)
	if err != nil {
		return nil, storeErr(op, "user", err)
	}
	answers, err := q.CountAnswersByAuthor(ctx, userID)
	if err != nil {
		return nil, storeErr(op, "user", err)
	}
	return EvaluateQuota(s.quotas, user.ID, user.Role, questions, answers), nil
}

// checkQuota enforces the quota inside a creating transaction when enabled.
func (s *Service) checkQuota(ctx context.Context, q *db.Queries, op string, userID int64, pick func(*models.UserQuota) models.ResourceQuota) error {
	if !s.enforceQuota {
		return nil
	}
	quota, err := s.userQuota(ctx, q, op, userID)
	if err != nil {
		return err
	}
	if rq := pick(quota); rq.Exhausted() {
		return newError(CodeQuotaExceeded, op, "limit of %d reached for role %s", rq.Limit, quota.Role)
	}
	return nil
}
