package qa

import (
	"context"
	"strings"
	"testing"
	"time"

	"qaforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCreateQuestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)

	qn, err := env.svc.CreateQuestion(ctx, alice, QuestionInput{
		Title:      "  Why does my car overheat?  ",
		Body:       "The temperature gauge climbs after ten minutes of driving.",
		CategoryID: ptr(int64(2)),
		Tags:       []string{"Engine", "cooling", "engine", " Cooling System "},
	})
	require.NoError(t, err)
	assert.Equal(t, "Why does my car overheat?", qn.Title)
	assert.Equal(t, "why-does-my-car-overheat", qn.Slug)
	assert.Equal(t, models.StatusOpen, qn.Status)
	assert.Equal(t, []string{"cooling", "cooling-system", "engine"}, qn.Tags)

	cat, err := env.repo.GetCategoryByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.QuestionCount)

	tag, err := env.repo.GetTag(ctx, "engine")
	require.NoError(t, err)
	assert.Equal(t, 1, tag.QuestionCount)

	// Повторный заголовок получает суффикс
	again, err := env.svc.CreateQuestion(ctx, alice, QuestionInput{
		Title: "Why does my car overheat",
		Body:  "Same problem on a different car.",
	})
	require.NoError(t, err)
	assert.Equal(t, "why-does-my-car-overheat-2", again.Slug)
}

func TestCreateQuestionValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)
	body := "A body that is long enough."

	tests := []struct {
		name string
		in   QuestionInput
	}{
		{"short title", QuestionInput{Title: "Why", Body: body}},
		{"long title", QuestionInput{Title: strings.Repeat("x", 151), Body: body}},
		{"short body", QuestionInput{Title: "Valid title", Body: "short"}},
		{"too many tags", QuestionInput{Title: "Valid title", Body: body, Tags: []string{"a", "b", "c", "d", "e", "f"}}},
		{"long tag", QuestionInput{Title: "Valid title", Body: body, Tags: []string{strings.Repeat("t", 36)}}},
		{"unknown category", QuestionInput{Title: "Valid title", Body: body, CategoryID: ptr(int64(99))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateQuestion(ctx, alice, tt.in)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := env.svc.CreateQuestion(ctx, Actor{}, QuestionInput{Title: "Valid title", Body: body})
	assert.ErrorIs(t, err, ErrUnauthorized)

	page, err := env.svc.ListQuestions(ctx, models.QuestionFilter{}, models.Page{})
	require.NoError(t, err)
	assert.Zero(t, page.Total, "неудачные попытки не оставляют строк")
}

func TestUpdateQuestionMovesCountersTogether(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)
	mod := env.user(t, "mod", models.RoleModerator)

	qn, err := env.svc.CreateQuestion(ctx, alice, QuestionInput{
		Title:      "Original title here",
		Body:       "Original body text.",
		CategoryID: ptr(int64(1)),
		Tags:       []string{"go", "sql"},
	})
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	updated, err := env.svc.UpdateQuestion(ctx, alice, qn.ID, QuestionInput{
		Title:      "Edited title here",
		Body:       "Edited body text.",
		CategoryID: ptr(int64(3)),
		Tags:       []string{"go", "sqlite"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Edited title here", updated.Title)
	assert.Equal(t, qn.Slug, updated.Slug, "slug не меняется")
	require.NotNil(t, updated.EditedAt)
	assert.True(t, updated.EditedAt.Equal(env.clock.Now()))

	counts := map[int64]int{}
	cats, err := env.svc.ListCategories(ctx)
	require.NoError(t, err)
	for _, c := range cats {
		counts[c.ID] = c.QuestionCount
	}
	assert.Equal(t, map[int64]int{1: 0, 2: 0, 3: 1}, counts)

	for name, want := range map[string]int{"go": 1, "sql": 0, "sqlite": 1} {
		tag, err := env.repo.GetTag(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, want, tag.QuestionCount, name)
	}

	_, err = env.svc.UpdateQuestion(ctx, bob, qn.ID, QuestionInput{Title: "Hijacked title", Body: "Hijacked body."})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.svc.UpdateQuestion(ctx, mod, qn.ID, QuestionInput{Title: "Moderated title", Body: "Moderated body."})
	require.NoError(t, err)
	cat, err := env.repo.GetCategoryByID(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, cat.QuestionCount, "вопрос без категории")
}

func TestDeleteQuestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)

	qn, err := env.svc.CreateQuestion(ctx, alice, QuestionInput{
		Title:      "Question to delete",
		Body:       "This one will be gone.",
		CategoryID: ptr(int64(1)),
		Tags:       []string{"temp"},
	})
	require.NoError(t, err)
	a := env.answer(t, bob, qn.ID)
	_, err = env.svc.AddComment(ctx, alice, a.ID, "thanks")
	require.NoError(t, err)
	_, err = env.svc.VoteAnswer(ctx, alice, a.ID, models.VoteUp)
	require.NoError(t, err)
	_, err = env.svc.Bookmark(ctx, bob, qn.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.DeleteQuestion(ctx, bob, qn.ID), ErrUnauthorized)
	require.NoError(t, env.svc.DeleteQuestion(ctx, alice, qn.ID))

	_, err = env.svc.GetQuestion(ctx, qn.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	cat, err := env.repo.GetCategoryByID(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, cat.QuestionCount)
	tag, err := env.repo.GetTag(ctx, "temp")
	require.NoError(t, err)
	assert.Zero(t, tag.QuestionCount)

	assert.ErrorIs(t, env.svc.DeleteQuestion(ctx, alice, qn.ID), ErrNotFound)
}

func TestCloseQuestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)
	qn := env.question(t, alice, "Question to close")
	env.answer(t, bob, qn.ID)

	_, err := env.svc.CloseQuestion(ctx, alice, qn.ID, "")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = env.svc.CloseQuestion(ctx, bob, qn.ID, "duplicate")
	assert.ErrorIs(t, err, ErrUnauthorized)

	closed, err := env.svc.CloseQuestion(ctx, alice, qn.ID, "duplicate")
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)
	assert.Equal(t, models.StatusClosed, closed.Status)
	assert.Equal(t, "duplicate", closed.CloseReason)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, 1, closed.AnswerCount)

	_, err = env.svc.CloseQuestion(ctx, alice, qn.ID, "again")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = env.svc.CreateAnswer(ctx, bob, qn.ID, "A late answer that should fail.")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, env.reload(t, qn.ID).AnswerCount)

	answers, err := env.svc.GetAnswers(ctx, qn.ID, 0)
	require.NoError(t, err)
	assert.Len(t, answers, 1, "закрытие не удаляет ответы")
}

func TestSetBounty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)
	qn := env.question(t, alice, "Bounty question")
	plain := env.question(t, alice, "No bounty question")

	_, err := env.svc.SetBounty(ctx, bob, qn.ID, 50, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.svc.SetBounty(ctx, alice, qn.ID, 0, 0)
	assert.ErrorIs(t, err, ErrInvalid)

	got, err := env.svc.SetBounty(ctx, alice, qn.ID, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, got.BountyAmount)
	require.NotNil(t, got.BountyExpiresAt)
	assert.True(t, got.BountyExpiresAt.Equal(env.clock.Now().Add(DefaultBountyDuration)))

	_, err = env.svc.SetBounty(ctx, alice, qn.ID, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidState)

	page, err := env.svc.ListQuestions(ctx, models.QuestionFilter{HasActiveBounty: ptr(true)}, models.Page{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, qn.ID, page.Items[0].ID)

	page, err = env.svc.ListQuestions(ctx, models.QuestionFilter{HasActiveBounty: ptr(false)}, models.Page{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, plain.ID, page.Items[0].ID)

	// После истечения награда не считается активной
	env.clock.Advance(DefaultBountyDuration + time.Minute)
	page, err = env.svc.ListQuestions(ctx, models.QuestionFilter{HasActiveBounty: ptr(true)}, models.Page{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	_, err = env.svc.CloseQuestion(ctx, alice, plain.ID, "off topic")
	require.NoError(t, err)
	_, err = env.svc.SetBounty(ctx, alice, plain.ID, 10, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestGetQuestionViewerOverlay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)
	qn, err := env.svc.CreateQuestion(ctx, alice, QuestionInput{
		Title:      "Overlay question",
		Body:       "Who voted and who bookmarked.",
		CategoryID: ptr(int64(1)),
		Tags:       []string{"go"},
	})
	require.NoError(t, err)

	_, err = env.svc.VoteQuestion(ctx, bob, qn.ID, models.VoteDown)
	require.NoError(t, err)
	_, err = env.svc.Bookmark(ctx, bob, qn.ID)
	require.NoError(t, err)

	d, err := env.svc.GetQuestionBySlug(ctx, qn.Slug, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice", d.Author.Username)
	require.NotNil(t, d.Category)
	assert.Equal(t, "programming", d.Category.Slug)
	assert.Equal(t, []string{"go"}, d.Tags)
	require.NotNil(t, d.ViewerVote)
	assert.Equal(t, models.VoteDown, *d.ViewerVote)
	assert.True(t, d.IsBookmarked)
	assert.Equal(t, -1, d.VoteCount)

	d, err = env.svc.GetQuestion(ctx, qn.ID, alice.UserID)
	require.NoError(t, err)
	assert.Nil(t, d.ViewerVote)
	assert.False(t, d.IsBookmarked)

	_, err = env.svc.GetQuestionBySlug(ctx, "missing", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListQuestionsFiltersAndSorts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)

	first := env.question(t, alice, "Goroutine leak in server", "go")
	env.clock.Advance(time.Minute)
	second := env.question(t, alice, "Brake pads squeal", "brakes")
	env.clock.Advance(time.Minute)
	third := env.question(t, bob, "Channel deadlock", "go")

	_, err := env.svc.VoteQuestion(ctx, bob, first.ID, models.VoteUp)
	require.NoError(t, err)
	a := env.answer(t, bob, second.ID)
	_, err = env.svc.AcceptAnswer(ctx, alice, a.ID)
	require.NoError(t, err)
	for i := range 3 {
		_, err := env.svc.RecordView(ctx, third.ID, Viewer{AnonymousID: string(rune('a' + i))})
		require.NoError(t, err)
	}

	ids := func(p *models.QuestionPage) []int64 {
		out := make([]int64, len(p.Items))
		for i, qn := range p.Items {
			out[i] = qn.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter models.QuestionFilter
		want   []int64
	}{
		{"newest", models.QuestionFilter{}, []int64{third.ID, second.ID, first.ID}},
		{"votes", models.QuestionFilter{Sort: models.SortVotes}, []int64{first.ID, third.ID, second.ID}},
		{"unanswered", models.QuestionFilter{Sort: models.SortUnanswered}, []int64{third.ID, first.ID}},
		{"most viewed", models.QuestionFilter{Sort: models.SortMostViewed}, []int64{third.ID, second.ID, first.ID}},
		{"most active", models.QuestionFilter{Sort: models.SortMostActive}, []int64{third.ID, second.ID, first.ID}},
		{"tag", models.QuestionFilter{Tag: "GO"}, []int64{third.ID, first.ID}},
		{"author", models.QuestionFilter{AuthorID: &bob.UserID}, []int64{third.ID}},
		{"search", models.QuestionFilter{Search: "brake"}, []int64{second.ID}},
		{"accepted", models.QuestionFilter{HasAccepted: ptr(true)}, []int64{second.ID}},
		{"not accepted", models.QuestionFilter{HasAccepted: ptr(false)}, []int64{third.ID, first.ID}},
		{"status", models.QuestionFilter{Status: ptr(models.StatusAnswered)}, []int64{second.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := env.svc.ListQuestions(ctx, tt.filter, models.Page{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page))
			assert.Equal(t, len(tt.want), page.Total)
		})
	}

	page, err := env.svc.ListQuestions(ctx, models.QuestionFilter{}, models.Page{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []int64{first.ID}, ids(page))
	assert.Equal(t, []string{"go"}, page.Items[0].Tags)
}

func TestRelatedQuestions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)

	create := func(title string, cat int64, tags ...string) *models.Question {
		qn, err := env.svc.CreateQuestion(ctx, alice, QuestionInput{
			Title: title, Body: "Body long enough to pass.", CategoryID: ptr(cat), Tags: tags,
		})
		require.NoError(t, err)
		return qn
	}
	base := create("Engine overheats in traffic", 2, "engine")
	sameCat := create("Tyre pressure warning light", 2)
	sameTag := create("Engine knocking on cold start", 3, "engine")
	create("Unrelated programming question", 1, "go")

	_, err := env.svc.VoteQuestion(ctx, bob, sameTag.ID, models.VoteUp)
	require.NoError(t, err)

	related, err := env.svc.RelatedQuestions(ctx, base.ID, 0)
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, sameTag.ID, related[0].ID)
	assert.Equal(t, sameCat.ID, related[1].ID)

	_, err = env.svc.RelatedQuestions(ctx, 999, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrendingQuestionsWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)

	old := env.question(t, alice, "An old but popular question")
	_, err := env.svc.VoteQuestion(ctx, bob, old.ID, models.VoteUp)
	require.NoError(t, err)

	env.clock.Advance(31 * 24 * time.Hour)
	quiet := env.question(t, alice, "A new quiet question")
	env.clock.Advance(time.Minute)
	fresh := env.question(t, alice, "A fresh question")
	viewed := env.question(t, bob, "A viewed question")
	for i := range 10 {
		_, err := env.svc.RecordView(ctx, viewed.ID, Viewer{AnonymousID: string(rune('a' + i))})
		require.NoError(t, err)
	}
	_, err = env.svc.VoteQuestion(ctx, bob, fresh.ID, models.VoteUp)
	require.NoError(t, err)

	trending, err := env.svc.TrendingQuestions(ctx, 10)
	require.NoError(t, err)
	got := make([]int64, len(trending))
	for i, qn := range trending {
		got[i] = qn.ID
	}
	// 2 > 1 > 0, вопрос старше 30 дней исключён
	assert.Equal(t, []int64{fresh.ID, viewed.ID, quiet.ID}, got)
	assert.InDelta(t, 1.0, TrendingScore(trending[1]), 1e-9)
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)
	admin := env.user(t, "root", models.RoleAdmin)

	_, err := env.svc.CreateCategory(ctx, alice, "Gardening")
	assert.ErrorIs(t, err, ErrUnauthorized)

	cat, err := env.svc.CreateCategory(ctx, admin, "Home Repair")
	require.NoError(t, err)
	assert.Equal(t, "home-repair", cat.Slug)

	_, err = env.svc.CreateCategory(ctx, admin, "Home Repair")
	assert.ErrorIs(t, err, ErrInvalid)

	cats, err := env.svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 4)

	env.question(t, alice, "Tagged question one", "diy", "tools")
	env.question(t, alice, "Tagged question two", "diy")
	tags, err := env.svc.PopularTags(ctx, 0)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "diy", tags[0].Name)
	assert.Equal(t, 2, tags[0].QuestionCount)
}

func TestNormalizeTags(t *testing.T) {
	tags, err := NormalizeTags([]string{" Go ", "go", "", "Data Base", "GO"})
	require.NoError(t, err)
	assert.Equal(t, []string{"data-base", "go"}, tags)

	tags, err = NormalizeTags(nil)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
