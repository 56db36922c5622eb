package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
	"github.com/cloudkenya/hostpanel/internal/core/ports"
	"github.com/cloudkenya/hostpanel/internal/pkg/metrics"
	"github.com/cloudkenya/hostpanel/internal/security/password"
	"github.com/cloudkenya/hostpanel/internal/security/token"
	"github.com/cloudkenya/hostpanel/internal/security/totp"
)

// casRetries bounds how often a failed-login increment is retried when a
// concurrent attempt wins the compare-and-set. Losing twice in a row on the
// same account is already rare; three times means something is badly wrong.
const casRetries = 3

// LoginThrottle abstracts the best-effort pre-auth rate limiter (Redis).
// It runs before any account lookup and is independent of the durable
// per-account lockout machine.
type LoginThrottle interface {
	Allow(ctx context.Context, identifier, ip string) (bool, error)
}

type authService struct {
	accounts ports.AccountRepository
	hasher   *password.Hasher
	tokens   *token.Issuer
	audit    ports.AuditRecorder
	throttle LoginThrottle
	log      zerolog.Logger

	// dummyHash is compared against when the email is unknown, so a
	// missing account costs the same as a wrong password.
	dummyHash string
}

// NewAuthService returns the AuthService implementation. throttle may be nil
// to disable pre-auth rate limiting.
func NewAuthService(
	accounts ports.AccountRepository,
	hasher *password.Hasher,
	tokens *token.Issuer,
	audit ports.AuditRecorder,
	throttle LoginThrottle,
	log zerolog.Logger,
) ports.AuthService {
	dummy, err := hasher.Hash("hostpanel-timing-equalizer")
	if err != nil {
		// Hash only fails on a bad cost or short input; neither applies.
		dummy = ""
	}
	return &authService{
		accounts:  accounts,
		hasher:    hasher,
		tokens:    tokens,
		audit:     audit,
		throttle:  throttle,
		log:       log,
		dummyHash: dummy,
	}
}

func (s *authService) Register(ctx context.Context, username, email, pass string, meta ports.RequestMeta) (*ports.RegisterResult, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if len(username) < 3 || email == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.allow(ctx, email, meta.IPAddress); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return nil, err
	}

	apiKey, apiSecret, err := generateAPICredentials()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Plan:         domain.PlanFree,
		Language:     "en",
		Timezone:     "Africa/Nairobi",
		Quota:        domain.DefaultQuota(),
		APIKey:       apiKey,
		APISecret:    apiSecret,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		if err == domain.ErrDuplicateIdentity {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		}
		return nil, err
	}
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()

	// A fresh account has no second factor, so the password step alone is
	// the complete factor set and a session is issued immediately.
	sessionToken, err := s.tokens.Issue(created.ID, created.Username)
	if err != nil {
		return nil, err
	}

	s.record(created.ID, "User registered", domain.CategoryAuth, domain.ActivitySuccess, meta, nil)
	s.log.Info().Str("account_id", created.ID).Str("username", created.Username).Msg("account registered")

	return &ports.RegisterResult{
		Account:   created,
		Token:     sessionToken,
		APIKey:    apiKey,
		APISecret: apiSecret,
	}, nil
}

func (s *authService) Login(ctx context.Context, email, pass string, meta ports.RequestMeta) (*ports.LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || pass == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.allow(ctx, email, meta.IPAddress); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			// Burn an equivalent hash comparison so an unknown email is
			// indistinguishable from a wrong password by timing or shape.
			s.hasher.Verify(pass, s.dummyHash)
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now().UTC()
	if account.Locked(now) {
		// No counter increment while locked: retries cannot extend the lock.
		metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		s.record(account.ID, "Login refused: account locked", domain.CategoryAuth, domain.ActivityFailed, meta, nil)
		return nil, domain.ErrAccountLocked
	}

	if !s.hasher.Verify(pass, account.PasswordHash) {
		locked := s.recordFailure(ctx, account, meta)
		s.record(account.ID, "Login failed: bad password", domain.CategoryAuth, domain.ActivityFailed, meta, nil)
		if locked {
			metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
			return nil, domain.ErrAccountLocked
		}
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if account.TwoFactorEnabled {
		// Password alone is not full authentication here: counters stay
		// untouched and only the account id travels forward.
		metrics.LoginAttemptsTotal.WithLabelValues("requires_2fa").Inc()
		return &ports.LoginResult{Requires2FA: true, AccountID: account.ID}, nil
	}

	return s.completeLogin(ctx, account, "User logged in", meta)
}

func (s *authService) VerifyTwoFactor(ctx context.Context, accountID, code string, meta ports.RequestMeta) (string, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if account.Locked(now) {
		return "", domain.ErrAccountLocked
	}
	if !account.TwoFactorEnabled || account.TwoFactorSecret == "" {
		return "", domain.ErrInvalidCode
	}

	if !totp.Verify(account.TwoFactorSecret, code, now) {
		s.recordFailure(ctx, account, meta)
		metrics.TwoFactorChecksTotal.WithLabelValues("login", "invalid_code").Inc()
		s.record(account.ID, "Login failed: bad 2FA code", domain.CategoryAuth, domain.ActivityFailed, meta, nil)
		return "", domain.ErrInvalidCode
	}

	metrics.TwoFactorChecksTotal.WithLabelValues("login", "success").Inc()
	result, err := s.completeLogin(ctx, account, "User logged in (2FA)", meta)
	if err != nil {
		return "", err
	}
	return result.Token, nil
}

func (s *authService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string, meta ports.RequestMeta) error {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(currentPassword, account.PasswordHash) {
		s.record(account.ID, "Password change rejected", domain.CategorySecurity, domain.ActivityFailed, meta, nil)
		return domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.SetPasswordHash(ctx, accountID, hash); err != nil {
		return err
	}

	s.record(account.ID, "Password changed", domain.CategorySecurity, domain.ActivitySuccess, meta, nil)
	return nil
}

func (s *authService) UpdateProfile(ctx context.Context, accountID string, upd domain.ProfileUpdate, meta ports.RequestMeta) error {
	if upd.Email != nil {
		lowered := normalizeEmail(*upd.Email)
		upd.Email = &lowered
	}

	if err := s.accounts.UpdateProfile(ctx, accountID, upd); err != nil {
		return err
	}

	s.record(accountID, "Profile updated", domain.CategoryAuth, domain.ActivitySuccess, meta, nil)
	return nil
}

func (s *authService) CurrentAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.accounts.FindByID(ctx, accountID)
}

// completeLogin finishes a fully authenticated attempt: counters reset, lock
// cleared, last-login stamped, session token minted. Audit failure after this
// point never rolls the login back.
func (s *authService) completeLogin(ctx context.Context, account *domain.Account, action string, meta ports.RequestMeta) (*ports.LoginResult, error) {
	now := time.Now().UTC()
	if err := s.accounts.RecordSuccess(ctx, account.ID, now); err != nil {
		return nil, err
	}

	sessionToken, err := s.tokens.Issue(account.ID, account.Username)
	if err != nil {
		return nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.record(account.ID, action, domain.CategoryAuth, domain.ActivitySuccess, meta, nil)
	return &ports.LoginResult{Token: sessionToken, AccountID: account.ID}, nil
}

// recordFailure applies one failed-attempt transition of the lockout machine
// through the store's compare-and-set, retrying on contention so concurrent
// failures never under-count. Returns true when this failure locked the
// account (or a concurrent one already had).
func (s *authService) recordFailure(ctx context.Context, account *domain.Account, meta ports.RequestMeta) bool {
	a := account
	for attempt := 0; attempt < casRetries; attempt++ {
		now := time.Now().UTC()
		if a.Locked(now) {
			return true
		}

		observed := a.FailedLoginCount
		count := observed
		if a.LockedUntil != nil {
			// Expired lock: counting restarts from zero, and the stale
			// expiry is cleared by this same write.
			count = 0
		}
		newCount := count + 1

		var lockUntil *time.Time
		if newCount >= domain.LockoutThreshold {
			t := now.Add(domain.LockoutDuration)
			lockUntil = &t
		}

		ok, err := s.accounts.RecordFailure(ctx, a.ID, observed, newCount, lockUntil)
		if err != nil {
			s.log.Error().Err(err).Str("account_id", a.ID).Msg("failed to record login failure")
			return false
		}
		if ok {
			if lockUntil != nil {
				metrics.LockoutsTotal.Inc()
				s.record(a.ID, "Account locked after repeated failures", domain.CategorySecurity, domain.ActivityFailed, meta, nil)
				s.log.Warn().Str("account_id", a.ID).Time("locked_until", *lockUntil).Msg("account locked")
			}
			return lockUntil != nil
		}

		a, err = s.accounts.FindByID(ctx, a.ID)
		if err != nil {
			s.log.Error().Err(err).Msg("reload after lost lockout CAS failed")
			return false
		}
	}

	s.log.Error().Str("account_id", account.ID).Msg("lockout CAS contention exhausted retries")
	return false
}

// allow consults the pre-auth throttle. Backend failures degrade open so a
// Redis outage never blocks authentication.
func (s *authService) allow(ctx context.Context, identifier, ip string) error {
	if s.throttle == nil {
		return nil
	}
	allowed, err := s.throttle.Allow(ctx, identifier, ip)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle unavailable, allowing attempt")
		return nil
	}
	if !allowed {
		metrics.LoginAttemptsTotal.WithLabelValues("throttled").Inc()
		return domain.ErrTooManyAttempts
	}
	return nil
}

func (s *authService) record(accountID, action string, category domain.ActivityCategory, status domain.ActivityStatus, meta ports.RequestMeta, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.Activity{
		UserID:    accountID,
		Action:    action,
		Category:  category,
		Status:    status,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateAPICredentials mints the non-interactive credential pair created
// once at registration. The key is a stable identifier, the secret is
// 32 bytes of entropy shown exactly once.
func generateAPICredentials() (key, secret string, err error) {
	key = "ck_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	raw := make([]byte, 32)
	if _, err = rand.Read(raw); err != nil {
		return "", "", err
	}
	return key, hex.EncodeToString(raw), nil
}
