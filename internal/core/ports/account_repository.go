package ports

import (
	"context"
	"time"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
)

// AccountRepository defines the persistence contract for account records.
//
// The lockout fields (failed login count, locked-until) are only ever written
// through RecordFailure and RecordSuccess so the auth flow keeps full control
// of the lockout state machine.
type AccountRepository interface {
	// Create inserts a fully-initialized account. Returns
	// domain.ErrDuplicateIdentity when the username or email is taken.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)

	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)

	// UpdateProfile applies only the non-nil fields of upd.
	UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) error

	// SetPasswordHash atomically replaces the stored password hash.
	SetPasswordHash(ctx context.Context, id, hash string) error

	// SetTwoFactor writes the 2FA secret and enabled flag together.
	SetTwoFactor(ctx context.Context, id, secret string, enabled bool) error

	// RecordFailure writes newCount and the lock expiry in a single
	// compare-and-set conditioned on the counter still holding
	// observedCount. It reports false (and writes nothing) when a
	// concurrent attempt got there first; callers re-read and retry so no
	// increment is ever silently dropped. A nil lockUntil clears any
	// stored lock expiry.
	RecordFailure(ctx context.Context, id string, observedCount, newCount int, lockUntil *time.Time) (bool, error)

	// RecordSuccess resets the failure counter, clears the lock, and
	// stamps the last successful login.
	RecordSuccess(ctx context.Context, id string, at time.Time) error
}
