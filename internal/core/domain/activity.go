package domain

import "time"

// ActivityCategory classifies an audit trail entry.
type ActivityCategory string

const (
	CategoryAuth     ActivityCategory = "auth"
	CategoryFile     ActivityCategory = "file"
	CategoryDomain   ActivityCategory = "domain"
	CategorySecurity ActivityCategory = "security"
	CategoryBilling  ActivityCategory = "billing"
	CategorySystem   ActivityCategory = "system"
)

// ActivityStatus records how the audited action ended.
type ActivityStatus string

const (
	ActivitySuccess ActivityStatus = "success"
	ActivityFailed  ActivityStatus = "failed"
	ActivityPending ActivityStatus = "pending"
)

// Activity is one append-only audit trail entry. Entries are created once
// per security-relevant action and never mutated; retention is handled by
// the store's TTL policy.
type Activity struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Action    string           `json:"action"`
	Category  ActivityCategory `json:"category"`
	Status    ActivityStatus   `json:"status"`
	IPAddress string           `json:"ip_address,omitempty"`
	UserAgent string           `json:"user_agent,omitempty"`
	Details   map[string]any   `json:"details,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ActivityFilter narrows an activity listing.
type ActivityFilter struct {
	Category ActivityCategory
	Status   ActivityStatus
	Limit    int
}

// CategoryStat is one row of the per-category activity summary.
type CategoryStat struct {
	Category     ActivityCategory `json:"category"`
	Count        int64            `json:"count"`
	LastActivity time.Time        `json:"last_activity"`
}
