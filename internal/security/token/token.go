// Package token mints and verifies the signed session tokens issued after a
// fully successful authentication. Tokens are stateless: possession of a
// token with a valid signature inside its validity window is sufficient
// proof of identity, and there is no revocation list.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
)

// Config is injected at construction; the signing secret is process-wide
// configuration, never per-account state.
type Config struct {
	Secret string
	TTL    time.Duration
}

// Claims is the verified content of a session token.
type Claims struct {
	AccountID string
	Username  string
}

// Issuer signs and verifies session tokens with HMAC-SHA256.
type Issuer struct {
	config Config
}

func NewIssuer(cfg Config) *Issuer {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Issuer{config: cfg}
}

// Issue mints a token carrying the account identity, valid from now for the
// configured TTL.
func (i *Issuer) Issue(accountID, username string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":      accountID,
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(i.config.TTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(i.config.Secret))
}

// Verify checks signature and expiry and returns the embedded identity.
// Side-effect free: expired tokens fail with domain.ErrTokenExpired, any
// other defect with domain.ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(i.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	if sub == "" {
		return nil, domain.ErrInvalidToken
	}

	return &Claims{AccountID: sub, Username: username}, nil
}
