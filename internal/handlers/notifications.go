package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"qaforum/internal/db"
	"qaforum/internal/middleware"
	"qaforum/internal/models"
)

type NotificationsHandler struct {
	repo *db.Repository
	log  *slog.Logger
}

func NewNotificationsHandler(repo *db.Repository, log *slog.Logger) *NotificationsHandler {
	return &NotificationsHandler{repo: repo, log: log}
}

// ListNotifications возвращает уведомления пользователя
func (h *NotificationsHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	actor := middleware.ActorFrom(r.Context())

	notifs, err := h.repo.GetNotificationsByUser(r.Context(), actor.UserID)
	if err != nil {
		h.log.Error("load notifications failed", slog.Int64("user_id", actor.UserID), slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if notifs == nil {
		notifs = []*models.Notification{}
	}
	writeJSON(w, http.StatusOK, notifs)
}

// MarkRead marks ?id= as read for the current user.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	id, err := queryID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	actor := middleware.ActorFrom(r.Context())
	if err := h.repo.MarkNotificationRead(r.Context(), actor.UserID, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "notification not found")
			return
		}
		h.log.Error("mark notification failed", slog.Int64("id", id), slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
