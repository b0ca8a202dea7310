package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// AnonymousCookie identifies a browser for view deduplication.
const AnonymousCookie = "anon_id"

const anonymousCookieTTL = 365 * 24 * time.Hour

// Viewer makes sure every anonymous browser carries a stable random id.
// Signed-in users are deduplicated by user id instead, so they get no cookie.
func Viewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ActorFrom(r.Context()).Authenticated() {
			next.ServeHTTP(w, r)
			return
		}

		var anonID string
		if cookie, err := r.Cookie(AnonymousCookie); err == nil {
			if id, err := uuid.Parse(cookie.Value); err == nil {
				anonID = id.String()
			}
		}
		if anonID == "" {
			anonID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     AnonymousCookie,
				Value:    anonID,
				Path:     "/",
				Expires:  time.Now().Add(anonymousCookieTTL),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), anonymousKey, anonID)))
	})
}

// AnonymousIDFrom returns the anonymous viewer id set by Viewer.
func AnonymousIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(anonymousKey).(string)
	return id
}
