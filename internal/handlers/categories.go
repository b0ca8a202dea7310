package handlers

import (
	"log/slog"
	"net/http"

	"qaforum/internal/qa"
)

type CategoryHandler struct {
	svc *qa.Service
	log *slog.Logger
}

func NewCategoryHandler(svc *qa.Service, log *slog.Logger) *CategoryHandler {
	return &CategoryHandler{svc: svc, log: log}
}

// Categories lists categories (GET) or creates one (POST, admin only).
func (h *CategoryHandler) Categories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		categories, err := h.svc.ListCategories(r.Context())
		if err != nil {
			handleError(w, h.log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, categories)
	case http.MethodPost:
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		var req struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		category, err := h.svc.CreateCategory(r.Context(), actor, req.Name)
		if err != nil {
			handleError(w, h.log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, category)
	default:
		methodNotAllowed(w)
	}
}

// Tags lists the most used tags.
func (h *CategoryHandler) Tags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	tags, err := h.svc.PopularTags(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}
