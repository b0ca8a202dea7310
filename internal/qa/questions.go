package qa

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"qaforum/internal/db"
	"qaforum/internal/models"
)

// Content limits.
const (
	minTitleLen  = 5
	maxTitleLen  = 150
	minBodyLen   = 10
	maxBodyLen   = 20000
	maxTags      = 5
	maxTagLen    = 35
	minReasonLen = 3
	maxReasonLen = 500
)

const (
	// TrendingWindow bounds how old a trending question may be.
	TrendingWindow = 30 * 24 * time.Hour
	// DefaultBountyDuration applies when SetBounty gets no duration.
	DefaultBountyDuration = 7 * 24 * time.Hour

	defaultRelatedLimit  = 5
	defaultTrendingLimit = 10
	maxListLimit         = 50
)

// QuestionInput carries the editable fields of a question.
type QuestionInput struct {
	Title      string
	Body       string
	CategoryID *int64
	Tags       []string
}

// QuestionDetail is a question with its author, category and, when a viewer
// was given, that viewer's own vote and bookmark state.
type QuestionDetail struct {
	*models.Question
	Author       models.UserSummary `json:"author"`
	Category     *models.Category   `json:"category,omitempty"`
	ViewerVote   *models.VoteType   `json:"viewer_vote,omitempty"`
	IsBookmarked bool               `json:"is_bookmarked"`
}

func (in *QuestionInput) normalize(op string) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	if n := utf8.RuneCountInString(in.Title); n < minTitleLen || n > maxTitleLen {
		return newError(CodeInvalid, op, "title must be %d-%d characters", minTitleLen, maxTitleLen)
	}
	if n := utf8.RuneCountInString(in.Body); n < minBodyLen || n > maxBodyLen {
		return newError(CodeInvalid, op, "body must be %d-%d characters", minBodyLen, maxBodyLen)
	}
	tags, err := NormalizeTags(in.Tags)
	if err != nil {
		return &Error{Code: CodeInvalid, Op: op, Message: err.Error()}
	}
	in.Tags = tags
	return nil
}

// NormalizeTags lowercases, trims and deduplicates tags, joining inner
// whitespace with dashes. The result is sorted.
func NormalizeTags(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	var tags []string
	for _, t := range raw {
		t = strings.Join(strings.Fields(strings.ToLower(t)), "-")
		if t == "" || seen[t] {
			continue
		}
		if utf8.RuneCountInString(t) > maxTagLen {
			return nil, errors.New("tag " + t + " is too long")
		}
		seen[t] = true
		tags = append(tags, t)
	}
	if len(tags) > maxTags {
		return nil, errors.New("too many tags")
	}
	slices.Sort(tags)
	return tags, nil
}

func canModify(actor Actor, authorID int64) bool {
	return actor.UserID == authorID || actor.Role.CanModerate()
}

// GetQuestion returns a question by id. viewerID 0 skips the viewer overlay.
func (s *Service) GetQuestion(ctx context.Context, id, viewerID int64) (*QuestionDetail, error) {
	const op = "get question"
	qn, err := s.repo.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, storeErr(op, "question", err)
	}
	return s.questionDetail(ctx, op, qn, viewerID)
}

// GetQuestionBySlug returns a question by slug. viewerID 0 skips the viewer overlay.
func (s *Service) GetQuestionBySlug(ctx context.Context, slug string, viewerID int64) (*QuestionDetail, error) {
	const op = "get question"
	qn, err := s.repo.GetQuestionBySlug(ctx, slug)
	if err != nil {
		return nil, storeErr(op, "question", err)
	}
	return s.questionDetail(ctx, op, qn, viewerID)
}

func (s *Service) questionDetail(ctx context.Context, op string, qn *models.Question, viewerID int64) (*QuestionDetail, error) {
	if err := s.attachTags(ctx, qn); err != nil {
		return nil, storeErr(op, "question", err)
	}
	d := &QuestionDetail{Question: qn}

	authors, err := s.repo.UserSummaries(ctx, []int64{qn.AuthorID})
	if err != nil {
		return nil, storeErr(op, "author", err)
	}
	d.Author = authors[qn.AuthorID]

	if qn.CategoryID != nil {
		cat, err := s.repo.GetCategoryByID(ctx, *qn.CategoryID)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return nil, storeErr(op, "category", err)
		}
		d.Category = cat
	}

	if viewerID != 0 {
		votes, err := s.repo.VotesByVoter(ctx, models.TargetQuestion, []int64{qn.ID}, viewerID)
		if err != nil {
			return nil, storeErr(op, "vote", err)
		}
		if v, ok := votes[qn.ID]; ok {
			d.ViewerVote = &v
		}
		d.IsBookmarked, err = s.repo.BookmarkExists(ctx, qn.ID, viewerID)
		if err != nil {
			return nil, storeErr(op, "bookmark", err)
		}
	}
	return d, nil
}

func (s *Service) attachTags(ctx context.Context, questions ...*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	ids := make([]int64, len(questions))
	for i, qn := range questions {
		ids[i] = qn.ID
	}
	tags, err := s.repo.TagsForQuestions(ctx, ids)
	if err != nil {
		return err
	}
	for _, qn := range questions {
		qn.Tags = tags[qn.ID]
		if qn.Tags == nil {
			qn.Tags = []string{}
		}
	}
	return nil
}

// ListQuestions returns one page of questions matching the filter.
func (s *Service) ListQuestions(ctx context.Context, f models.QuestionFilter, page models.Page) (*models.QuestionPage, error) {
	const op = "list questions"
	page = page.Normalize()
	items, total, err := s.repo.ListQuestions(ctx, f, page, s.now())
	if err != nil {
		return nil, storeErr(op, "question", err)
	}
	if err := s.attachTags(ctx, items...); err != nil {
		return nil, storeErr(op, "question", err)
	}
	if items == nil {
		items = []*models.Question{}
	}
	return &models.QuestionPage{Items: items, Total: total, Page: page.Number, PageSize: page.Size}, nil
}

// RelatedQuestions returns questions sharing the category or a tag with the
// given one, best voted first, then most viewed.
func (s *Service) RelatedQuestions(ctx context.Context, id int64, limit int) ([]*models.Question, error) {
	const op = "related questions"
	qn, err := s.repo.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, storeErr(op, "question", err)
	}
	items, err := s.repo.RelatedQuestions(ctx, qn, clampLimit(limit, defaultRelatedLimit))
	if err != nil {
		return nil, storeErr(op, "question", err)
	}
	if err := s.attachTags(ctx, items...); err != nil {
		return nil, storeErr(op, "question", err)
	}
	return items, nil
}

// TrendingQuestions returns questions of the last 30 days ranked by
// 2*votes + views/10, newest first on ties.
func (s *Service) TrendingQuestions(ctx context.Context, limit int) ([]*models.Question, error) {
	const op = "trending questions"
	items, err := s.repo.TrendingQuestions(ctx, s.now().Add(-TrendingWindow), clampLimit(limit, defaultTrendingLimit))
	if err != nil {
		return nil, storeErr(op, "question", err)
	}
	if err := s.attachTags(ctx, items...); err != nil {
		return nil, storeErr(op, "question", err)
	}
	return items, nil
}

// TrendingScore is the ranking used by TrendingQuestions.
func TrendingScore(qn *models.Question) float64 {
	return 2*float64(qn.VoteCount) + float64(qn.ViewCount)/10
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// CreateQuestion creates a question, links its tags and bumps the category
// and tag counters in the same transaction.
func (s *Service) CreateQuestion(ctx context.Context, actor Actor, in QuestionInput) (*models.Question, error) {
	const op = "create question"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	if err := in.normalize(op); err != nil {
		return nil, err
	}

	now := s.now()
	qn := &models.Question{
		AuthorID:       actor.UserID,
		Title:          in.Title,
		Body:           in.Body,
		CategoryID:     in.CategoryID,
		Status:         models.StatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastActivityAt: now,
	}

	err := s.repo.WithTx(ctx, func(q *db.Queries) error {
		if err := s.checkQuota(ctx, q, op, actor.UserID, func(uq *models.UserQuota) models.ResourceQuota { return uq.Questions }); err != nil {
			return err
		}
		if in.CategoryID != nil {
			if err := q.AdjustCategoryCount(ctx, *in.CategoryID, 1); err != nil {
				return categoryErr(op, err)
			}
		}
		slug, err := uniqueSlug(ctx, q, Slugify(in.Title))
		if err != nil {
			return storeErr(op, "question", err)
		}
		qn.Slug = slug
		if err := q.CreateQuestion(ctx, qn); err != nil {
			return storeErr(op, "question", err)
		}
		return storeErr(op, "tag", q.AttachTags(ctx, qn.ID, in.Tags))
	})
	if err != nil {
		return nil, err
	}
	qn.Tags = in.Tags
	if qn.Tags == nil {
		qn.Tags = []string{}
	}

	s.log.Info("question created",
		slog.Int64("question_id", qn.ID),
		slog.Int64("author_id", qn.AuthorID),
		slog.String("slug", qn.Slug))
	return qn, nil
}

func categoryErr(op string, err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return newError(CodeInvalid, op, "category does not exist")
	}
	return storeErr(op, "category", err)
}

// UpdateQuestion replaces title, body, category and tags. Moving to another
// category decrements the old counter and increments the new one together
// with the row update. The slug never changes.
func (s *Service) UpdateQuestion(ctx context.Context, actor Actor, id int64, in QuestionInput) (*models.Question, error) {
	const op = "update question"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	if err := in.normalize(op); err != nil {
		return nil, err
	}

	var updated *models.Question
	err := s.repo.WithTx(ctx, func(q *db.Queries) error {
		qn, err := q.GetQuestionByID(ctx, id)
		if err != nil {
			return storeErr(op, "question", err)
		}
		if !canModify(actor, qn.AuthorID) {
			return newError(CodeUnauthorized, op, "only the author or a moderator may edit this question")
		}

		if !sameCategory(qn.CategoryID, in.CategoryID) {
			if qn.CategoryID != nil {
				if err := q.AdjustCategoryCount(ctx, *qn.CategoryID, -1); err != nil {
					return categoryErr(op, err)
				}
			}
			if in.CategoryID != nil {
				if err := q.AdjustCategoryCount(ctx, *in.CategoryID, 1); err != nil {
					return categoryErr(op, err)
				}
			}
		}

		current, err := q.TagsForQuestions(ctx, []int64{id})
		if err != nil {
			return storeErr(op, "tag", err)
		}
		removed, added := diffTags(current[id], in.Tags)
		if err := q.DetachTags(ctx, id, removed); err != nil {
			return storeErr(op, "tag", err)
		}
		if err := q.AttachTags(ctx, id, added); err != nil {
			return storeErr(op, "tag", err)
		}

		if err := q.UpdateQuestionContent(ctx, id, in.Title, in.Body, in.CategoryID, s.now()); err != nil {
			return storeErr(op, "question", err)
		}
		updated, err = q.GetQuestionByID(ctx, id)
		return storeErr(op, "question", err)
	})
	if err != nil {
		return nil, err
	}
	updated.Tags = in.Tags
	if updated.Tags == nil {
		updated.Tags = []string{}
	}
	return updated, nil
}

func sameCategory(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func diffTags(old, next []string) (removed, added []string) {
	for _, t := range old {
		if !slices.Contains(next, t) {
			removed = append(removed, t)
		}
	}
	for _, t := range next {
		if !slices.Contains(old, t) {
			added = append(added, t)
		}
	}
	return removed, added
}

// DeleteQuestion removes a question with its answers, votes, bookmarks and
// views, and decrements the category and tag counters.
func (s *Service) DeleteQuestion(ctx context.Context, actor Actor, id int64) error {
	const op = "delete question"
	if err := requireActor(op, actor); err != nil {
		return err
	}
	err := s.repo.WithTx(ctx, func(q *db.Queries) error {
		qn, err := q.GetQuestionByID(ctx, id)
		if err != nil {
			return storeErr(op, "question", err)
		}
		if !canModify(actor, qn.AuthorID) {
			return newError(CodeUnauthorized, op, "only the author or a moderator may delete this question")
		}
		if qn.CategoryID != nil {
			if err := q.AdjustCategoryCount(ctx, *qn.CategoryID, -1); err != nil {
				return categoryErr(op, err)
			}
		}
		tags, err := q.TagsForQuestions(ctx, []int64{id})
		if err != nil {
			return storeErr(op, "tag", err)
		}
		if err := q.DetachTags(ctx, id, tags[id]); err != nil {
			return storeErr(op, "tag", err)
		}
		return storeErr(op, "question", q.DeleteQuestion(ctx, id))
	})
	if err != nil {
		return err
	}
	s.log.Info("question deleted", slog.Int64("question_id", id), slog.Int64("actor_id", actor.UserID))
	return nil
}

// CloseQuestion closes a question for new answers. Existing answers stay.
func (s *Service) CloseQuestion(ctx context.Context, actor Actor, id int64, reason string) (*models.Question, error) {
	const op = "close question"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if n := utf8.RuneCountInString(reason); n < minReasonLen || n > maxReasonLen {
		return nil, newError(CodeInvalid, op, "reason must be %d-%d characters", minReasonLen, maxReasonLen)
	}

	var closed *models.Question
	err := s.repo.WithTx(ctx, func(q *db.Queries) error {
		qn, err := q.GetQuestionByID(ctx, id)
		if err != nil {
			return storeErr(op, "question", err)
		}
		if !canModify(actor, qn.AuthorID) {
			return newError(CodeUnauthorized, op, "only the author or a moderator may close this question")
		}
		if qn.IsClosed {
			return newError(CodeInvalidState, op, "question is already closed")
		}
		if err := q.CloseQuestion(ctx, id, reason, s.now()); err != nil {
			return storeErr(op, "question", err)
		}
		closed, err = q.GetQuestionByID(ctx, id)
		return storeErr(op, "question", err)
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

// SetBounty puts a bounty on an open question for duration (default 7 days).
func (s *Service) SetBounty(ctx context.Context, actor Actor, id int64, amount int, duration time.Duration) (*models.Question, error) {
	const op = "set bounty"
	if err := requireActor(op, actor); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, newError(CodeInvalid, op, "bounty must be positive")
	}
	if duration <= 0 {
		duration = DefaultBountyDuration
	}

	var out *models.Question
	err := s.repo.WithTx(ctx, func(q *db.Queries) error {
		qn, err := q.GetQuestionByID(ctx, id)
		if err != nil {
			return storeErr(op, "question", err)
		}
		if qn.AuthorID != actor.UserID {
			return newError(CodeUnauthorized, op, "only the author may offer a bounty")
		}
		now := s.now()
		if qn.IsClosed {
			return newError(CodeInvalidState, op, "question is closed")
		}
		if qn.HasActiveBounty(now) {
			return newError(CodeInvalidState, op, "a bounty is already active")
		}
		if err := q.SetBounty(ctx, id, amount, now.Add(duration), now); err != nil {
			return storeErr(op, "question", err)
		}
		out, err = q.GetQuestionByID(ctx, id)
		return storeErr(op, "question", err)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
