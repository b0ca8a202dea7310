package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qaforum/internal/config"
	"qaforum/internal/db"
	"qaforum/internal/models"
	"qaforum/internal/qa"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureViewer(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = AnonymousIDFrom(r.Context())
	})
}

func TestViewerCookie(t *testing.T) {
	var got string
	h := Viewer(captureViewer(&got))

	// Новый посетитель получает cookie
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/question?id=1", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, AnonymousCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, cookies[0].Value, got)

	// Повторный визит с тем же cookie
	req := httptest.NewRequest(http.MethodGet, "/question?id=1", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, cookies[0].Value, got)

	// Испорченный cookie заменяется
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonymousCookie, Value: "garbage"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, "garbage", got)
}

func TestViewerSkipsSignedInUsers(t *testing.T) {
	got := "unset"
	h := Viewer(captureViewer(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithActor(req.Context(), qa.Actor{UserID: 7, Role: models.RoleUser}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Result().Cookies())
	assert.Empty(t, got)
}

func TestAuthenticate(t *testing.T) {
	repo, err := db.NewRepository(&config.Config{DBPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	ctx := context.Background()
	require.NoError(t, repo.RunMigrations(ctx))

	user := &models.User{Email: "mod@example.com", Username: "mod", Role: models.RoleModerator}
	require.NoError(t, repo.CreateUser(ctx, user, "secret123"))
	require.NoError(t, repo.CreateSession(ctx, &models.Session{SessionID: "live", UserID: user.ID, Expires: time.Now().Add(time.Hour)}))
	require.NoError(t, repo.CreateSession(ctx, &models.Session{SessionID: "stale", UserID: user.ID, Expires: time.Now().Add(-time.Hour)}))

	var actor qa.Actor
	var session string
	h := Authenticate(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = ActorFrom(r.Context())
		session = SessionFrom(r.Context())
	}))

	tests := []struct {
		name      string
		cookie    string
		wantActor qa.Actor
	}{
		{"no cookie", "", qa.Actor{}},
		{"live session", "live", qa.Actor{UserID: user.ID, Role: models.RoleModerator}},
		{"expired session", "stale", qa.Actor{}},
		{"unknown session", "missing", qa.Actor{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.wantActor, actor)
			if tt.wantActor.Authenticated() {
				assert.Equal(t, tt.cookie, session)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	called := false
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithActor(req.Context(), qa.Actor{UserID: 1}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.True(t, called)
}

func TestLoggingKeepsStatus(t *testing.T) {
	h := Logging(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
