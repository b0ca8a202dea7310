package handlers

import (
	"log/slog"
	"net/http"

	"qaforum/internal/models"
	"qaforum/internal/qa"
)

type VoteHandler struct {
	svc *qa.Service
	log *slog.Logger
}

func NewVoteHandler(svc *qa.Service, log *slog.Logger) *VoteHandler {
	return &VoteHandler{svc: svc, log: log}
}

type voteResponse struct {
	TargetType models.TargetType `json:"target_type"`
	TargetID   int64             `json:"target_id"`
	VoteCount  int               `json:"vote_count"`
}

// Vote toggles a vote: POST /vote?question_id=|answer_id=&type=up|down.
// Repeating the same vote removes it.
func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	voteType, err := models.ParseVoteType(r.URL.Query().Get("type"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := voteResponse{}
	switch {
	case r.URL.Query().Get("question_id") != "":
		resp.TargetType = models.TargetQuestion
		if resp.TargetID, err = queryID(r, "question_id"); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.VoteCount, err = h.svc.VoteQuestion(r.Context(), actor, resp.TargetID, voteType)
	case r.URL.Query().Get("answer_id") != "":
		resp.TargetType = models.TargetAnswer
		if resp.TargetID, err = queryID(r, "answer_id"); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.VoteCount, err = h.svc.VoteAnswer(r.Context(), actor, resp.TargetID, voteType)
	default:
		writeMessage(w, http.StatusBadRequest, "question_id or answer_id is required")
		return
	}
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
