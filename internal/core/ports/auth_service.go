package ports

import (
	"context"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
)

// RequestMeta carries transport-level context forwarded into the audit trail.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// RegisterResult is returned once per account lifetime: the API secret is
// never retrievable again.
type RegisterResult struct {
	Account   *domain.Account
	Token     string
	APIKey    string
	APISecret string
}

// LoginResult is either a session token or a two-factor challenge, never both.
// When Requires2FA is set the caller holds only the account id; a session
// token is minted only after VerifyTwoFactor accepts a code.
type LoginResult struct {
	Token       string
	Requires2FA bool
	AccountID   string
}

type AuthService interface {
	Register(ctx context.Context, username, email, password string, meta RequestMeta) (*RegisterResult, error)
	Login(ctx context.Context, email, password string, meta RequestMeta) (*LoginResult, error)
	VerifyTwoFactor(ctx context.Context, accountID, code string, meta RequestMeta) (string, error)
	ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string, meta RequestMeta) error
	UpdateProfile(ctx context.Context, accountID string, upd domain.ProfileUpdate, meta RequestMeta) error
	CurrentAccount(ctx context.Context, accountID string) (*domain.Account, error)
}
