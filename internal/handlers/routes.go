package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"qaforum/internal/db"
	"qaforum/internal/middleware"
	"qaforum/internal/qa"
)

// Routes builds the HTTP API. Every request passes Authenticate and Viewer,
// so handlers can read the actor and the anonymous viewer id from the context.
func Routes(repo *db.Repository, svc *qa.Service, log *slog.Logger, sessionTTL time.Duration) http.Handler {
	authHandler := NewAuthHandler(repo, log, sessionTTL)
	questionHandler := NewQuestionHandler(svc, log)
	answerHandler := NewAnswerHandler(svc, log)
	voteHandler := NewVoteHandler(svc, log)
	bookmarkHandler := NewBookmarkHandler(svc, log)
	commentHandler := NewCommentHandler(svc, log)
	categoryHandler := NewCategoryHandler(svc, log)
	notificationsHandler := NewNotificationsHandler(repo, log)
	profileHandler := NewProfileHandler(svc, log)

	auth := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeMessage(w, http.StatusNotFound, "not found")
			return
		}
		questionHandler.Questions(w, r)
	})
	mux.HandleFunc("/register", authHandler.Register)
	mux.HandleFunc("/login", authHandler.Login)
	mux.HandleFunc("/logout", authHandler.Logout)
	mux.Handle("/me", auth(authHandler.Me))

	mux.HandleFunc("/questions", questionHandler.Questions)
	mux.HandleFunc("/question", questionHandler.Question)
	mux.Handle("/question/close", auth(questionHandler.Close))
	mux.Handle("/question/bounty", auth(questionHandler.Bounty))
	mux.HandleFunc("/questions/related", questionHandler.Related)
	mux.HandleFunc("/questions/trending", questionHandler.Trending)

	mux.HandleFunc("/answers", answerHandler.Answers)
	mux.Handle("/answer", auth(answerHandler.Answer))
	mux.Handle("/answer/accept", auth(answerHandler.Accept))

	mux.HandleFunc("/comments", commentHandler.Comments)
	mux.Handle("/comment", auth(commentHandler.Comment))

	mux.Handle("/vote", auth(voteHandler.Vote))
	mux.Handle("/bookmark", auth(bookmarkHandler.Bookmark))
	mux.Handle("/bookmarks", auth(bookmarkHandler.List))

	mux.HandleFunc("/categories", categoryHandler.Categories)
	mux.HandleFunc("/tags", categoryHandler.Tags)

	mux.Handle("/notifications", auth(notificationsHandler.ListNotifications))
	mux.Handle("/notifications/read", auth(notificationsHandler.MarkRead))
	mux.Handle("/profile", auth(profileHandler.Activity))
	mux.HandleFunc("/quota", profileHandler.Quota)

	return middleware.Logging(log)(middleware.Authenticate(repo, log)(middleware.Viewer(mux)))
}
