package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"qaforum/internal/middleware"
	"qaforum/internal/models"
	"qaforum/internal/qa"
)

// QuestionHandler serves question endpoints.
type QuestionHandler struct {
	svc *qa.Service
	log *slog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(svc *qa.Service, log *slog.Logger) *QuestionHandler {
	return &QuestionHandler{svc: svc, log: log}
}

type questionRequest struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	CategoryID *int64   `json:"category_id"`
	Tags       []string `json:"tags"`
}

func (req questionRequest) input() qa.QuestionInput {
	return qa.QuestionInput{Title: req.Title, Body: req.Body, CategoryID: req.CategoryID, Tags: req.Tags}
}

// QuestionView is a question page: the question, its answers and whether
// this request counted as a new view.
type QuestionView struct {
	Question *qa.QuestionDetail `json:"question"`
	Answers  []*qa.AnswerDetail `json:"answers"`
	Related  []*models.Question `json:"related"`
	NewView  bool               `json:"new_view"`
}

func requireActor(w http.ResponseWriter, r *http.Request) (qa.Actor, bool) {
	actor := middleware.ActorFrom(r.Context())
	if !actor.Authenticated() {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return actor, false
	}
	return actor, true
}

// advisoryQuota is the boundary check run before content is created.
func advisoryQuota(ctx context.Context, svc *qa.Service, actor qa.Actor, pick func(*models.UserQuota) models.ResourceQuota) error {
	quota, err := svc.GetUserQuota(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if rq := pick(quota); rq.Exhausted() {
		return &qa.Error{Code: qa.CodeQuotaExceeded, Op: "quota", Message: "limit of " + strconv.Itoa(rq.Limit) + " reached for role " + string(quota.Role)}
	}
	return nil
}

func filterFromQuery(r *http.Request) (models.QuestionFilter, error) {
	q := r.URL.Query()
	var f models.QuestionFilter
	var err error

	if f.Sort, err = models.ParseSortKey(q.Get("sort")); err != nil {
		return f, err
	}
	if s := q.Get("status"); s != "" {
		status, err := models.ParseStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = &status
	}
	if q.Get("category") != "" {
		id, err := queryID(r, "category")
		if err != nil {
			return f, err
		}
		f.CategoryID = &id
	}
	if q.Get("author") != "" {
		id, err := queryID(r, "author")
		if err != nil {
			return f, err
		}
		f.AuthorID = &id
	}
	for name, dst := range map[string]**bool{"has_accepted": &f.HasAccepted, "has_bounty": &f.HasActiveBounty} {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return f, err
			}
			*dst = &v
		}
	}
	f.Search = q.Get("q")
	f.Tag = q.Get("tag")
	return f, nil
}

// Questions lists questions (GET) or creates one (POST).
func (h *QuestionHandler) Questions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		f, err := filterFromQuery(r)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		page, err := h.svc.ListQuestions(r.Context(), f, pageFromQuery(r))
		if err != nil {
			handleError(w, h.log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, page)

	case http.MethodPost:
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		var req questionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := advisoryQuota(r.Context(), h.svc, actor, func(q *models.UserQuota) models.ResourceQuota { return q.Questions }); err != nil {
			handleError(w, h.log, r, err)
			return
		}
		qn, err := h.svc.CreateQuestion(r.Context(), actor, req.input())
		if err != nil {
			handleError(w, h.log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, qn)

	default:
		methodNotAllowed(w)
	}
}

// Question shows (GET), edits (PUT) or deletes (DELETE) one question.
// GET accepts ?id= or ?slug= and counts a view.
func (h *QuestionHandler) Question(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.show(w, r)
	case http.MethodPut:
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		id, err := queryID(r, "id")
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		var req questionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		qn, err := h.svc.UpdateQuestion(r.Context(), actor, id, req.input())
		if err != nil {
			handleError(w, h.log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, qn)
	case http.MethodDelete:
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		id, err := queryID(r, "id")
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.svc.DeleteQuestion(r.Context(), actor, id); err != nil {
			handleError(w, h.log, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (h *QuestionHandler) show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	var detail *qa.QuestionDetail
	var err error
	if slug := r.URL.Query().Get("slug"); slug != "" {
		detail, err = h.svc.GetQuestionBySlug(ctx, slug, actor.UserID)
	} else {
		id, perr := queryID(r, "id")
		if perr != nil {
			writeMessage(w, http.StatusBadRequest, perr.Error())
			return
		}
		detail, err = h.svc.GetQuestion(ctx, id, actor.UserID)
	}
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}

	isNew, err := h.svc.RecordView(ctx, detail.ID, qa.Viewer{UserID: actor.UserID, AnonymousID: middleware.AnonymousIDFrom(ctx)})
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	if isNew {
		detail.ViewCount++
	}

	answers, err := h.svc.GetAnswers(ctx, detail.ID, actor.UserID)
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	related, err := h.svc.RelatedQuestions(ctx, detail.ID, 0)
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	if related == nil {
		related = []*models.Question{}
	}
	writeJSON(w, http.StatusOK, QuestionView{Question: detail, Answers: answers, Related: related, NewView: isNew})
}

// Close closes a question: POST /question/close?id= {"reason": "..."}.
func (h *QuestionHandler) Close(w http.ResponseWriter, r *http.Request) {
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
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	qn, err := h.svc.CloseQuestion(r.Context(), actor, id, req.Reason)
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qn)
}

// Bounty offers a bounty: POST /question/bounty?id= {"amount": 50, "duration_hours": 72}.
func (h *QuestionHandler) Bounty(w http.ResponseWriter, r *http.Request) {
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
	var req struct {
		Amount        int `json:"amount"`
		DurationHours int `json:"duration_hours"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	qn, err := h.svc.SetBounty(r.Context(), actor, id, req.Amount, time.Duration(req.DurationHours)*time.Hour)
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qn)
}

// Related lists questions related to ?id=.
func (h *QuestionHandler) Related(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id, err := queryID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.svc.RelatedQuestions(r.Context(), id, queryInt(r, "limit", 0))
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	if items == nil {
		items = []*models.Question{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Trending lists the trending questions of the last 30 days.
func (h *QuestionHandler) Trending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := h.svc.TrendingQuestions(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		handleError(w, h.log, r, err)
		return
	}
	if items == nil {
		items = []*models.Question{}
	}
	writeJSON(w, http.StatusOK, items)
}
