package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"qaforum/internal/db"
	"qaforum/internal/middleware"
	"qaforum/internal/models"

	"github.com/google/uuid"
)

const (
	maxLoginAttempts   = 5
	loginBlockDuration = 10 * time.Minute
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// loginLimiter tracks failed login attempts per username.
type loginLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

func newLoginLimiter() *loginLimiter {
	return &loginLimiter{attempts: make(map[string][]time.Time), now: time.Now}
}

// blocked drops stale attempts and reports whether username is locked out.
func (l *loginLimiter) blocked(username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	// Оставляем только попытки за последние 10 минут
	var recent []time.Time
	for _, t := range l.attempts[username] {
		if now.Sub(t) < loginBlockDuration {
			recent = append(recent, t)
		}
	}
	if len(recent) == 0 {
		delete(l.attempts, username)
	} else {
		l.attempts[username] = recent
	}
	return len(recent) >= maxLoginAttempts
}

func (l *loginLimiter) fail(username string) {
	l.mu.Lock()
	l.attempts[username] = append(l.attempts[username], l.now())
	l.mu.Unlock()
}

func (l *loginLimiter) reset(username string) {
	l.mu.Lock()
	delete(l.attempts, username)
	l.mu.Unlock()
}

type AuthHandler struct {
	repo       *db.Repository
	log        *slog.Logger
	sessionTTL time.Duration
	limiter    *loginLimiter
}

func NewAuthHandler(repo *db.Repository, log *slog.Logger, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{repo: repo, log: log, sessionTTL: sessionTTL, limiter: newLoginLimiter()}
}

type credentials struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func normalizeUsername(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(s)), " ", "")
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	username := normalizeUsername(in.Username)
	password := strings.TrimSpace(in.Password)

	if email == "" || username == "" {
		writeMessage(w, http.StatusBadRequest, "email and username are required")
		return
	}
	if n := utf8.RuneCountInString(username); n < 3 || n > 30 {
		writeMessage(w, http.StatusBadRequest, "username must be 3-30 characters")
		return
	}
	// Проверка длины пароля по количеству рун
	if n := utf8.RuneCountInString(password); n < 6 || n > 50 {
		writeMessage(w, http.StatusBadRequest, "password must be 6-50 characters")
		return
	}
	if !emailRegex.MatchString(email) {
		writeMessage(w, http.StatusBadRequest, "invalid email")
		return
	}

	taken, err := h.repo.IsEmailOrUsernameTaken(r.Context(), email, username)
	if err != nil {
		h.log.Error("uniqueness check failed", slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "registration failed")
		return
	}
	if taken {
		writeMessage(w, http.StatusConflict, "email or username already taken")
		return
	}

	user := &models.User{Email: email, Username: username}
	if err := h.repo.CreateUser(r.Context(), user, password); err != nil {
		if db.IsUniqueViolation(err) {
			writeMessage(w, http.StatusConflict, "email or username already taken")
			return
		}
		h.log.Error("create user failed", slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "registration failed")
		return
	}

	h.log.Info("user registered", slog.Int64("user_id", user.ID), slog.String("username", username))
	writeJSON(w, http.StatusCreated, models.UserSummary{ID: user.ID, Username: user.Username, Role: user.Role})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	username := normalizeUsername(in.Username)

	if h.limiter.blocked(username) {
		writeMessage(w, http.StatusTooManyRequests, "too many failed attempts, try again in 10 minutes")
		return
	}

	user, err := h.repo.GetUserByUsername(r.Context(), username)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			h.log.Error("login lookup failed", slog.String("error", err.Error()))
			writeMessage(w, http.StatusInternalServerError, "login failed")
			return
		}
		h.limiter.fail(username)
		writeMessage(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if !db.CheckPassword(user, in.Password) {
		h.log.Info("wrong password", slog.String("username", username))
		h.limiter.fail(username)
		writeMessage(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	// Успешный вход, сбрасываем попытки
	h.limiter.reset(username)

	session := &models.Session{
		SessionID: uuid.New().String(),
		UserID:    user.ID,
		Expires:   time.Now().Add(h.sessionTTL),
	}
	if err := h.repo.CreateSession(r.Context(), session); err != nil {
		h.log.Error("create session failed", slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "login failed")
		return
	}
	// Удаляем все другие сессии этого пользователя
	if err := h.repo.DeleteUserSessions(r.Context(), user.ID, session.SessionID); err != nil {
		h.log.Warn("delete old sessions failed", slog.String("error", err.Error()))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.SessionID,
		Path:     "/",
		Expires:  session.Expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.log.Info("user logged in", slog.Int64("user_id", user.ID))
	writeJSON(w, http.StatusOK, models.UserSummary{ID: user.ID, Username: user.Username, Role: user.Role})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		if err := h.repo.DeleteSession(r.Context(), cookie.Value); err != nil {
			h.log.Warn("delete session failed", slog.String("error", err.Error()))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:   middleware.SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	actor := middleware.ActorFrom(r.Context())
	user, err := h.repo.GetUserByID(r.Context(), actor.UserID)
	if err != nil {
		h.log.Error("load user failed", slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, models.UserSummary{ID: user.ID, Username: user.Username, Role: user.Role})
}
