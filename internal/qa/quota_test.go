package qa

import (
	"context"
	"fmt"
	"testing"

	"qaforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateQuota(t *testing.T) {
	table := models.QuotaTable{
		models.RoleStudent: {Questions: 3, Answers: 3},
		models.RoleExpert:  {Questions: -1, Answers: 10},
	}

	tests := []struct {
		name      string
		role      models.Role
		questions int
		answers   int
		wantQ     models.ResourceQuota
		wantA     models.ResourceQuota
	}{
		{
			name: "student under limit", role: models.RoleStudent, questions: 1, answers: 0,
			wantQ: models.ResourceQuota{Used: 1, Limit: 3, Remaining: 2},
			wantA: models.ResourceQuota{Used: 0, Limit: 3, Remaining: 3},
		},
		{
			name: "student over limit", role: models.RoleStudent, questions: 5, answers: 3,
			wantQ: models.ResourceQuota{Used: 5, Limit: 3, Remaining: 0},
			wantA: models.ResourceQuota{Used: 3, Limit: 3, Remaining: 0},
		},
		{
			name: "negative limit is unlimited", role: models.RoleExpert, questions: 7, answers: 2,
			wantQ: models.ResourceQuota{Used: 7, Limit: -1, Unlimited: true, Remaining: -1},
			wantA: models.ResourceQuota{Used: 2, Limit: 10, Remaining: 8},
		},
		{
			name: "role missing from table", role: models.RoleAdmin, questions: 100, answers: 100,
			wantQ: models.ResourceQuota{Used: 100, Limit: -1, Unlimited: true, Remaining: -1},
			wantA: models.ResourceQuota{Used: 100, Limit: -1, Unlimited: true, Remaining: -1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateQuota(table, 42, tt.role, tt.questions, tt.answers)
			assert.Equal(t, int64(42), got.UserID)
			assert.Equal(t, tt.role, got.Role)
			assert.Equal(t, tt.wantQ, got.Questions)
			assert.Equal(t, tt.wantA, got.Answers)
		})
	}
}

func TestGetUserQuotaCountsLiveContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "student", models.RoleStudent)
	expert := env.user(t, "expert", models.RoleExpert)

	q1 := env.question(t, student, "Student question one")
	env.question(t, student, "Student question two")
	env.answer(t, student, q1.ID)

	quota, err := env.svc.GetUserQuota(ctx, student.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, quota.Role)
	assert.Equal(t, 2, quota.Questions.Used)
	assert.Equal(t, 1, quota.Questions.Remaining)
	assert.Equal(t, 2, quota.Answers.Remaining)

	// Удалённый вопрос освобождает квоту
	require.NoError(t, env.svc.DeleteQuestion(ctx, student, q1.ID))
	quota, err = env.svc.GetUserQuota(ctx, student.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, quota.Questions.Used)
	assert.Equal(t, 0, quota.Answers.Used)

	quota, err = env.svc.GetUserQuota(ctx, expert.UserID)
	require.NoError(t, err)
	assert.True(t, quota.Questions.Unlimited)
	assert.True(t, quota.Answers.Unlimited)

	_, err = env.svc.GetUserQuota(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuotaAdvisoryByDefault(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "busy", models.RoleUser)
	for i := range 4 {
		env.question(t, user, fmt.Sprintf("Advisory question %d", i))
	}
}

func TestQuotaEnforced(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.EnforceQuota = true
		o.Quotas = models.QuotaTable{models.RoleUser: {Questions: 2, Answers: 1}}
	})
	ctx := context.Background()
	user := env.user(t, "limited", models.RoleUser)
	mod := env.user(t, "mod", models.RoleModerator)

	q1 := env.question(t, user, "Enforced question one")
	env.question(t, user, "Enforced question two")
	_, err := env.svc.CreateQuestion(ctx, user, QuestionInput{Title: "Enforced question three", Body: "Over the limit now."})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	env.answer(t, user, q1.ID)
	_, err = env.svc.CreateAnswer(ctx, user, q1.ID, "A second answer over the limit.")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, 1, env.reload(t, q1.ID).AnswerCount)

	for i := range 3 {
		env.question(t, mod, fmt.Sprintf("Moderator question %d", i))
	}
}
