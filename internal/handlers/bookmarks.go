package handlers

import (
	"log/slog"
	"net/http"

	"qaforum/internal/qa"
)

type BookmarkHandler struct {
	svc *qa.Service
	log *slog.Logger
}

func NewBookmarkHandler(svc *qa.Service, log *slog.Logger) *BookmarkHandler {
	return &BookmarkHandler{svc: svc, log: log}
}

// Bookmark adds (POST) or removes (DELETE) a bookmark on ?question_id=.
// "changed" is false when the call did nothing.
func (h *BookmarkHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	questionID, err := queryID(r, "question_id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	var changed bool
	switch r.Method {
	case http.MethodPost:
		changed, err = h.svc.Bookmark(r.Context(), actor, questionID)
	case http.MethodDelete:
		changed, err = h.svc.Unbookmark(r.Context(), actor, questionID)
	default:
		methodNotAllowed(w)
		return
	}
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

// List returns the caller's bookmarked questions.
func (h *BookmarkHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	page, err := h.svc.ListBookmarks(r.Context(), actor, pageFromQuery(r))
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
