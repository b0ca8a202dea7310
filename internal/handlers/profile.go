package handlers

import (
	"log/slog"
	"net/http"

	"qaforum/internal/middleware"
	"qaforum/internal/models"
	"qaforum/internal/qa"
)

type ProfileHandler struct {
	svc *qa.Service
	log *slog.Logger
}

func NewProfileHandler(svc *qa.Service, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: log}
}

// Activity is the signed-in user's page: their quota and their questions.
type Activity struct {
	Quota     *models.UserQuota    `json:"quota"`
	Questions *models.QuestionPage `json:"questions"`
}

// Activity отображает активность пользователя
func (h *ProfileHandler) Activity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	actor := middleware.ActorFrom(r.Context())

	quota, err := h.svc.GetUserQuota(r.Context(), actor.UserID)
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	questions, err := h.svc.ListQuestions(r.Context(), models.QuestionFilter{AuthorID: &actor.UserID}, pageFromQuery(r))
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Activity{Quota: quota, Questions: questions})
}

// Quota returns the quota of ?user_id=, or of the caller when omitted.
func (h *ProfileHandler) Quota(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	userID := middleware.ActorFrom(r.Context()).UserID
	if r.URL.Query().Get("user_id") != "" {
		id, err := queryID(r, "user_id")
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		userID = id
	}
	if userID == 0 {
		writeMessage(w, http.StatusBadRequest, "user_id is required")
		return
	}
	quota, err := h.svc.GetUserQuota(r.Context(), userID)
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quota)
}
