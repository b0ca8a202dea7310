package qa

import (
	"context"
	"sync"
	"testing"
	"time"

	"qaforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordViewDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)
	qn := env.question(t, alice, "How many views")

	tests := []struct {
		name   string
		viewer Viewer
		want   bool
	}{
		{"first user view", Viewer{UserID: bob.UserID}, true},
		{"same user again", Viewer{UserID: bob.UserID}, false},
		{"user wins over token", Viewer{UserID: bob.UserID, AnonymousID: "tok-1"}, false},
		{"first anonymous view", Viewer{AnonymousID: "tok-1"}, true},
		{"same token again", Viewer{AnonymousID: "tok-1"}, false},
		{"no identity", Viewer{}, true},
		{"no identity again", Viewer{}, true},
	}
	for _, tt := range tests {
		got, err := env.svc.RecordView(ctx, qn.ID, tt.viewer)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	views, err := env.repo.CountViews(ctx, qn.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, views)
	assert.Equal(t, views, env.reload(t, qn.ID).ViewCount)

	_, err = env.svc.RecordView(ctx, 999, Viewer{UserID: bob.UserID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordViewConcurrentSameViewer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)
	qn := env.question(t, alice, "Concurrent views")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		counted int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := env.svc.RecordView(ctx, qn.ID, Viewer{AnonymousID: "same-browser"})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				counted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, counted)
	assert.Equal(t, 1, env.reload(t, qn.ID).ViewCount)
}

func TestBookmarks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", models.RoleUser)
	bob := env.user(t, "bob", models.RoleUser)
	q1 := env.question(t, alice, "First bookmarked")
	q2 := env.question(t, alice, "Second bookmarked")

	added, err := env.svc.Bookmark(ctx, bob, q1.ID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = env.svc.Bookmark(ctx, bob, q1.ID)
	require.NoError(t, err, "повторная закладка не ошибка")
	assert.False(t, added)
	assert.Equal(t, 1, env.reload(t, q1.ID).BookmarkCount)

	env.clock.Advance(time.Second)
	_, err = env.svc.Bookmark(ctx, bob, q2.ID)
	require.NoError(t, err)

	page, err := env.svc.ListBookmarks(ctx, bob, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, q2.ID, page.Items[0].ID)

	removed, err := env.svc.Unbookmark(ctx, bob, q1.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = env.svc.Unbookmark(ctx, bob, q1.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Zero(t, env.reload(t, q1.ID).BookmarkCount)

	_, err = env.svc.Bookmark(ctx, bob, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.svc.Bookmark(ctx, Actor{}, q1.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.svc.ListBookmarks(ctx, Actor{}, models.Page{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
