package handlers

import (
	"log/slog"
	"net/http"

	"qaforum/internal/middleware"
	"qaforum/internal/models"
	"qaforum/internal/qa"
)

type AnswerHandler struct {
	svc *qa.Service
	log *slog.Logger
}

func NewAnswerHandler(svc *qa.Service, log *slog.Logger) *AnswerHandler {
	return &AnswerHandler{svc: svc, log: log}
}

type answerRequest struct {
	Body string `json:"body"`
}

// Answers lists (GET) or posts (POST) answers of ?question_id=.
func (h *AnswerHandler) Answers(w http.ResponseWriter, r *http.Request) {
	questionID, err := queryID(r, "question_id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		answers, err := h.svc.GetAnswers(r.Context(), questionID, middleware.ActorFrom(r.Context()).UserID)
		if err != nil {
			handleError(w, h.log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, answers)

	case http.MethodPost:
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		var req answerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := advisoryQuota(r.Context(), h.svc, actor, func(q *models.UserQuota) models.ResourceQuota { return q.Answers }); err != nil {
			handleError(w, h.log, r, err)
			return
		}
		answer, err := h.svc.CreateAnswer(r.Context(), actor, questionID, req.Body)
		if err != nil {
			handleError(w, h.log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, answer)

	default:
		methodNotAllowed(w)
	}
}

// Answer edits (PUT) or deletes (DELETE) the answer ?id=.
func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := queryID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req answerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		answer, err := h.svc.UpdateAnswer(r.Context(), actor, id, req.Body)
		if err != nil {
			handleError(w, h.log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, answer)
	case http.MethodDelete:
		if err := h.svc.DeleteAnswer(r.Context(), actor, id); err != nil {
			handleError(w, h.log, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// Accept marks ?id= as the accepted answer of its question.
func (h *AnswerHandler) Accept(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := queryID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	answer, err := h.svc.AcceptAnswer(r.Context(), actor, id)
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}
