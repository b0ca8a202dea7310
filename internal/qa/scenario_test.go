package qa

import (
	"context"
	"testing"

	"qaforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarOverheatScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "driver", models.RoleStudent)
	mechanic := env.user(t, "mechanic", models.RoleExpert)
	other := env.user(t, "other", models.RoleUser)

	qn, err := env.svc.CreateQuestion(ctx, owner, QuestionInput{
		Title: "Why does my car overheat?",
		Body:  "Temperature climbs fast in city traffic, coolant level is fine.",
	})
	require.NoError(t, err)
	assert.Nil(t, qn.CategoryID)
	assert.Zero(t, qn.AnswerCount)

	first := env.answer(t, mechanic, qn.ID)
	got := env.reload(t, qn.ID)
	assert.Equal(t, 1, got.AnswerCount)
	assert.Equal(t, models.StatusAnswered, got.Status)

	votes, err := env.svc.VoteAnswer(ctx, mechanic, first.ID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, votes)

	accepted, err := env.svc.AcceptAnswer(ctx, owner, first.ID)
	require.NoError(t, err)
	assert.True(t, accepted.IsAccepted)
	got = env.reload(t, qn.ID)
	require.NotNil(t, got.AcceptedAnswerID)
	assert.Equal(t, first.ID, *got.AcceptedAnswerID)

	second := env.answer(t, other, qn.ID)
	_, err = env.svc.AcceptAnswer(ctx, owner, second.ID)
	require.NoError(t, err)

	firstNow, err := env.repo.GetAnswerByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, firstNow.IsAccepted)
	secondNow, err := env.repo.GetAnswerByID(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, secondNow.IsAccepted)

	got = env.reload(t, qn.ID)
	assert.Equal(t, 2, got.AnswerCount)
	assert.Equal(t, second.ID, *got.AcceptedAnswerID)
	assert.Equal(t, 1, firstNow.VoteCount)
}
