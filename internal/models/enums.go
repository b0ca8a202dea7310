package models

import "fmt"

// Role is a user's permission level.
type Role string

const (
	RoleStudent   Role = "student"
	RoleUser      Role = "user"
	RoleExpert    Role = "expert"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Roles lists every known role.
var Roles = []Role{RoleStudent, RoleUser, RoleExpert, RoleModerator, RoleAdmin}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanModerate reports whether the role may edit or close other users' content.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// Status is the lifecycle state of a question.
type Status string

const (
	StatusOpen     Status = "open"
	StatusAnswered Status = "answered"
	StatusClosed   Status = "closed"
)

// ParseStatus validates a status filter value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusAnswered, StatusClosed:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// TargetType is the kind of entity a vote points at.
type TargetType string

const (
	TargetQuestion TargetType = "question"
	TargetAnswer   TargetType = "answer"
)

// VoteType is the signed contribution of a vote.
type VoteType int

const (
	VoteDown VoteType = -1
	VoteUp   VoteType = 1
)

// Valid reports whether v is Up or Down.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// ParseVoteType accepts "up"/"down" as well as "1"/"-1".
func ParseVoteType(s string) (VoteType, error) {
	switch s {
	case "up", "1", "+1":
		return VoteUp, nil
	case "down", "-1":
		return VoteDown, nil
	}
	return 0, fmt.Errorf("unknown vote type %q", s)
}

// SortKey orders question listings.
type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortVotes      SortKey = "votes"
	SortUnanswered SortKey = "unanswered"
	SortMostActive SortKey = "most-active"
	SortMostViewed SortKey = "most-viewed"
)

// ParseSortKey validates a sort key; empty means newest.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case "":
		return SortNewest, nil
	case SortNewest, SortVotes, SortUnanswered, SortMostActive, SortMostViewed:
		return SortKey(s), nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}
