package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"qaforum/internal/db"
	"qaforum/internal/qa"
)

// SessionCookie is the name of the session cookie set on login.
const SessionCookie = "session_id"

type contextKey string

const (
	actorKey     contextKey = "actor"
	sessionKey   contextKey = "session"
	anonymousKey contextKey = "anonymous_id"
)

// Authenticate resolves the session cookie into a qa.Actor. Requests without
// a valid session pass through as anonymous.
func Authenticate(repo *db.Repository, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := repo.GetSession(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, db.ErrNotFound) {
					log.Error("session lookup failed", slog.String("error", err.Error()))
				}
				next.ServeHTTP(w, r)
				return
			}

			// Получаем роль пользователя и добавляем в контекст
			user, err := repo.GetUserByID(r.Context(), session.UserID)
			if err != nil {
				log.Warn("session user missing", slog.Int64("user_id", session.UserID), slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, qa.Actor{UserID: user.ID, Role: user.Role})
			ctx = context.WithValue(ctx, sessionKey, session.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ActorFrom(r.Context()).Authenticated() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ActorFrom returns the authenticated actor, or the zero (anonymous) Actor.
func ActorFrom(ctx context.Context) qa.Actor {
	actor, _ := ctx.Value(actorKey).(qa.Actor)
	return actor
}

// SessionFrom returns the current session id, if any.
func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

// WithActor stores an actor in ctx.
func WithActor(ctx context.Context, actor qa.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}
