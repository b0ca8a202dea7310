package models

// QuotaLimit caps how many questions and answers a role may keep.
// A negative value means unlimited.
type QuotaLimit struct {
	Questions int `yaml:"questions" json:"questions"`
	Answers   int `yaml:"answers" json:"answers"`
}

// QuotaTable maps roles to their limits. Roles missing from the table are unlimited.
type QuotaTable map[Role]QuotaLimit

// DefaultQuotaTable caps students and regular users; elevated roles are unlimited.
func DefaultQuotaTable() QuotaTable {
	return QuotaTable{
		RoleStudent: {Questions: 3, Answers: 3},
		RoleUser:    {Questions: 3, Answers: 3},
	}
}

// ResourceQuota is the quota state of one resource type.
type ResourceQuota struct {
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Unlimited bool `json:"unlimited"`
	Remaining int  `json:"remaining"`
}

// Exhausted reports whether no more items may be created.
func (q ResourceQuota) Exhausted() bool {
	return !q.Unlimited && q.Used >= q.Limit
}

// UserQuota is derived from live counts on every request and never stored.
type UserQuota struct {
	UserID    int64         `json:"user_id"`
	Role      Role          `json:"role"`
	Questions ResourceQuota `json:"questions"`
	Answers   ResourceQuota `json:"answers"`
}
