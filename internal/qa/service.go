// Package qa is the community question-and-answer engine: questions, answers,
// votes, bookmarks, accepted answers, deduplicated views and posting quotas.
//
// Every mutation runs in one storage transaction, and denormalized counters
// are changed by relative deltas applied by the database, so detail rows and
// counters commit or roll back together.
package qa

import (
	"context"
	"log/slog"
	"time"

	"qaforum/internal/db"
	"qaforum/internal/models"
)

// Actor is the authenticated caller. A zero UserID means anonymous.
type Actor struct {
	UserID int64
	Role   models.Role
}

// Authenticated reports whether the actor is a signed-in user.
func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

// Notifier delivers notifications. Delivery is best-effort and happens after
// the triggering transaction committed.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Logger       *slog.Logger
	Now          func() time.Time
	Quotas       models.QuotaTable
	EnforceQuota bool
	Notifier     Notifier
}

// Service is the facade the API boundary calls.
type Service struct {
	repo         *db.Repository
	log          *slog.Logger
	clock        func() time.Time
	quotas       models.QuotaTable
	enforceQuota bool
	notifier     Notifier
}

// NewService builds the engine on top of repo.
func NewService(repo *db.Repository, opts Options) *Service {
	s := &Service{
		repo:         repo,
		log:          opts.Logger,
		clock:        opts.Now,
		quotas:       opts.Quotas,
		enforceQuota: opts.EnforceQuota,
		notifier:     opts.Notifier,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.quotas == nil {
		s.quotas = models.DefaultQuotaTable()
	}
	if s.notifier == nil {
		s.notifier = NewStoreNotifier(repo)
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// notify delivers n and only logs failures.
func (s *Service) notify(ctx context.Context, n *models.Notification) {
	if n.FromUserID != nil && *n.FromUserID == n.UserID {
		return
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn("notification not delivered",
			slog.String("type", n.Type),
			slog.Int64("user_id", n.UserID),
			slog.String("error", err.Error()))
	}
}

func requireActor(op string, actor Actor) error {
	if !actor.Authenticated() {
		return newError(CodeUnauthorized, op, "authentication required")
	}
	return nil
}

// StoreNotifier writes notifications to the notifications table.
type StoreNotifier struct {
	repo *db.Repository
}

// NewStoreNotifier returns a Notifier backed by repo.
func NewStoreNotifier(repo *db.Repository) *StoreNotifier {
	return &StoreNotifier{repo: repo}
}

// Notify stores n for its recipient.
func (n *StoreNotifier) Notify(ctx context.Context, note *models.Notification) error {
	return n.repo.CreateNotification(ctx, note)
}

func int64Ptr(v int64) *int64 {
	return &v
}
