package ports

import "context"

// Enrollment is handed back from BeginEnrollment for presentation to an
// authenticator app.
type Enrollment struct {
	Secret     string
	OtpauthURL string
}

type TwoFactorService interface {
	// BeginEnrollment generates a fresh pending secret, replacing any
	// earlier pending one. The account's enabled flag stays false until
	// ConfirmEnrollment accepts a code.
	BeginEnrollment(ctx context.Context, accountID string, meta RequestMeta) (*Enrollment, error)
	ConfirmEnrollment(ctx context.Context, accountID, code string, meta RequestMeta) error
	// Disable requires the account password, not a code: removing the
	// second factor is gated on the stronger already-validated factor.
	Disable(ctx context.Context, accountID, password string, meta RequestMeta) error
}
