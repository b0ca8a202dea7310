package handlers

import (
	"log/slog"
	"net/http"

	"qaforum/internal/qa"
)

type CommentHandler struct {
	svc *qa.Service
	log *slog.Logger
}

func NewCommentHandler(svc *qa.Service, log *slog.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, log: log}
}

type commentRequest struct {
	Body string `json:"body"`
}

// Comments lists (GET) or adds (POST) comments on ?answer_id=.
func (h *CommentHandler) Comments(w http.ResponseWriter, r *http.Request) {
	answerID, err := queryID(r, "answer_id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		comments, err := h.svc.ListComments(r.Context(), answerID)
		if err != nil {
			handleError(w, h.log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, comments)
	case http.MethodPost:
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		var req commentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		comment, err := h.svc.AddComment(r.Context(), actor, answerID, req.Body)
		if err != nil {
			handleError(w, h.log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, comment)
	default:
		methodNotAllowed(w)
	}
}

// Comment edits (PUT) or deletes (DELETE) the comment ?id=.
// Только автор может изменять комментарий.
func (h *CommentHandler) Comment(w http.ResponseWriter, r *http.Request) {
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
		var req commentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		comment, err := h.svc.UpdateComment(r.Context(), actor, id, req.Body)
		if err != nil {
			handleError(w, h.log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, comment)
	case http.MethodDelete:
		if err := h.svc.DeleteComment(r.Context(), actor, id); err != nil {
			handleError(w, h.log, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}
