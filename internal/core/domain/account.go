package domain

import (
	"errors"
	"time"
)

// Plan identifies the hosting plan an account is subscribed to.
type Plan string

const (
	PlanFree     Plan = "FREE"
	PlanBasic    Plan = "BASIC"
	PlanPro      Plan = "PRO"
	PlanBusiness Plan = "BUSINESS"
)

// Lockout policy: five consecutive failures lock the account for one hour.
const (
	LockoutThreshold = 5
	LockoutDuration  = time.Hour
)

var ErrAccountNotFound = errors.New("account not found")
var ErrDuplicateIdentity = errors.New("account already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrAccountLocked = errors.New("account locked")
var ErrInvalidCode = errors.New("invalid two-factor code")
var ErrTwoFactorNotEnrolled = errors.New("two-factor enrollment not started")
var ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication already enabled")
var ErrInvalidToken = errors.New("invalid session token")
var ErrTokenExpired = errors.New("session token expired")
var ErrTooManyAttempts = errors.New("too many attempts")

// Quota captures resource allowances owned by the account record but
// enforced elsewhere (file storage, bandwidth accounting).
type Quota struct {
	DiskUsage      int64 `json:"disk_usage"`
	DiskLimit      int64 `json:"disk_limit"`
	BandwidthUsage int64 `json:"bandwidth_usage"`
	BandwidthLimit int64 `json:"bandwidth_limit"`
}

// DefaultQuota returns the allowances granted to a fresh FREE account.
func DefaultQuota() Quota {
	return Quota{
		DiskLimit:      1 << 30, // 1 GiB
		BandwidthLimit: 2 << 30, // 2 GiB
	}
}

// Account is the durable record behind every panel user.
type Account struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`

	Plan     Plan   `json:"plan"`
	Language string `json:"language"`
	Timezone string `json:"timezone"`
	Quota    Quota  `json:"quota"`

	TwoFactorEnabled bool   `json:"two_factor_enabled"`
	TwoFactorSecret  string `json:"-"`

	FailedLoginCount int        `json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	APIKey    string `json:"-"`
	APISecret string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Locked reports whether the account refuses authentication at the given
// instant. Expiry is a predicate, not a stored transition: once now reaches
// LockedUntil the account is treated as open again.
func (a *Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// ProfileUpdate carries the optional fields a profile update may change.
// Nil pointers leave the stored value untouched.
type ProfileUpdate struct {
	Email    *string
	Language *string
	Timezone *string
}
