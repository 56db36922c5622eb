package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
	"github.com/cloudkenya/hostpanel/internal/core/ports"
	"github.com/cloudkenya/hostpanel/internal/pkg/metrics"
	"github.com/cloudkenya/hostpanel/internal/security/password"
	"github.com/cloudkenya/hostpanel/internal/security/totp"
)

const totpIssuer = "CloudKenya"

type twoFactorService struct {
	accounts ports.AccountRepository
	hasher   *password.Hasher
	audit    ports.AuditRecorder
	log      zerolog.Logger
}

// NewTwoFactorService returns the TwoFactorService implementation.
func NewTwoFactorService(
	accounts ports.AccountRepository,
	hasher *password.Hasher,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) ports.TwoFactorService {
	return &twoFactorService{accounts: accounts, hasher: hasher, audit: audit, log: log}
}

func (s *twoFactorService) BeginEnrollment(ctx context.Context, accountID string, meta ports.RequestMeta) (*ports.Enrollment, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.TwoFactorEnabled {
		// An active second factor never comes off through enrollment; only
		// Disable removes it, and Disable re-verifies the password.
		return nil, domain.ErrTwoFactorAlreadyEnabled
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	// Overwrites any earlier pending secret: there is exactly one pending
	// enrollment per account, and enabled stays false until confirmation.
	if err := s.accounts.SetTwoFactor(ctx, accountID, secret, false); err != nil {
		return nil, err
	}

	return &ports.Enrollment{
		Secret:     secret,
		OtpauthURL: totp.ProvisionURI(secret, totpIssuer, account.Username),
	}, nil
}

func (s *twoFactorService) ConfirmEnrollment(ctx context.Context, accountID, code string, meta ports.RequestMeta) error {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.TwoFactorSecret == "" {
		return domain.ErrTwoFactorNotEnrolled
	}

	if !totp.Verify(account.TwoFactorSecret, code, time.Now().UTC()) {
		// Pending secret is left intact so the user can retry with the
		// next code from the same authenticator entry.
		metrics.TwoFactorChecksTotal.WithLabelValues("enrollment", "invalid_code").Inc()
		s.record(accountID, "2FA enrollment confirmation failed", domain.ActivityFailed, meta)
		return domain.ErrInvalidCode
	}

	if err := s.accounts.SetTwoFactor(ctx, accountID, account.TwoFactorSecret, true); err != nil {
		return err
	}
	metrics.TwoFactorChecksTotal.WithLabelValues("enrollment", "success").Inc()

	s.record(accountID, "2FA enabled", domain.ActivitySuccess, meta)
	s.log.Info().Str("account_id", accountID).Msg("two-factor authentication enabled")
	return nil
}

func (s *twoFactorService) Disable(ctx context.Context, accountID, pass string, meta ports.RequestMeta) error {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	// Disabling is gated on the password, not a code: the factor being
	// removed must not be the one authorizing its removal.
	if !s.hasher.Verify(pass, account.PasswordHash) {
		s.record(accountID, "2FA disable rejected", domain.ActivityFailed, meta)
		return domain.ErrInvalidCredentials
	}

	if err := s.accounts.SetTwoFactor(ctx, accountID, "", false); err != nil {
		return err
	}

	s.record(accountID, "2FA disabled", domain.ActivitySuccess, meta)
	return nil
}

func (s *twoFactorService) record(accountID, action string, status domain.ActivityStatus, meta ports.RequestMeta) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.Activity{
		UserID:    accountID,
		Action:    action,
		Category:  domain.CategorySecurity,
		Status:    status,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: time.Now().UTC(),
	})
}
