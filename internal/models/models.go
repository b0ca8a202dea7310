package models

import "time"

// User represents a forum user
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// UserSummary is the public part of a user attached to questions and answers.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Session represents a user session
type Session struct {
	SessionID string
	UserID    int64
	Expires   time.Time
}

// Category groups questions. QuestionCount is denormalized.
type Category struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	QuestionCount int    `json:"question_count"`
}

// Tag is a free-form label. QuestionCount is denormalized.
type Tag struct {
	Name          string `json:"name"`
	QuestionCount int    `json:"question_count"`
}

// Question is the aggregate root of the Q&A engine.
type Question struct {
	ID               int64      `json:"id"`
	AuthorID         int64      `json:"author_id"`
	Title            string     `json:"title"`
	Body             string     `json:"body"`
	Slug             string     `json:"slug"`
	CategoryID       *int64     `json:"category_id,omitempty"`
	Tags             []string   `json:"tags"`
	Status           Status     `json:"status"`
	VoteCount        int        `json:"vote_count"`
	ViewCount        int        `json:"view_count"`
	BookmarkCount    int        `json:"bookmark_count"`
	AnswerCount      int        `json:"answer_count"`
	AcceptedAnswerID *int64     `json:"accepted_answer_id,omitempty"`
	IsClosed         bool       `json:"is_closed"`
	CloseReason      string     `json:"close_reason,omitempty"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
	BountyAmount     int        `json:"bounty_amount"`
	BountyExpiresAt  *time.Time `json:"bounty_expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	EditedAt         *time.Time `json:"edited_at,omitempty"`
	LastActivityAt   time.Time  `json:"last_activity_at"`
}

// HasActiveBounty reports whether the bounty is still running at now.
func (q *Question) HasActiveBounty(now time.Time) bool {
	return q.BountyAmount > 0 && q.BountyExpiresAt != nil && q.BountyExpiresAt.After(now)
}

// Answer belongs to a question but is addressable on its own.
type Answer struct {
	ID           int64      `json:"id"`
	QuestionID   int64      `json:"question_id"`
	AuthorID     int64      `json:"author_id"`
	Body         string     `json:"body"`
	VoteCount    int        `json:"vote_count"`
	IsAccepted   bool       `json:"is_accepted"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	CommentCount int        `json:"comment_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	EditedAt     *time.Time `json:"edited_at,omitempty"`
}

// Vote is one voter's vote on a question or an answer.
type Vote struct {
	ID         int64
	TargetType TargetType
	TargetID   int64
	VoterID    int64
	Type       VoteType
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Bookmark links a user to a question they saved.
type Bookmark struct {
	ID         int64
	QuestionID int64
	UserID     int64
	CreatedAt  time.Time
}

// View is a counted view of a question. Exactly one of UserID and AnonymousID
// is set, or neither for an unidentified viewer.
type View struct {
	ID          int64
	QuestionID  int64
	UserID      *int64
	AnonymousID *string
	CreatedAt   time.Time
}

// Comment represents a comment on an answer
type Comment struct {
	ID        int64     `json:"id"`
	AnswerID  int64     `json:"answer_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notification represents a notification for a user
type Notification struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Type       string    `json:"type"`
	FromUserID *int64    `json:"from_user_id,omitempty"`
	QuestionID *int64    `json:"question_id,omitempty"`
	AnswerID   *int64    `json:"answer_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	IsRead     bool      `json:"is_read"`
}

// Notification types.
const (
	NotificationAnswer   = "answer"
	NotificationAccepted = "accepted"
	NotificationComment  = "comment"
)
