package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	issuer := NewIssuer(Config{Secret: "secret", TTL: time.Hour})

	tok, err := issuer.Issue("acc_1", "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.AccountID != "acc_1" {
		t.Fatalf("account id = %s, want acc_1", claims.AccountID)
	}
	if claims.Username != "alice" {
		t.Fatalf("username = %s, want alice", claims.Username)
	}
}

func TestVerify_Expired(t *testing.T) {
	issuer := NewIssuer(Config{Secret: "secret", TTL: time.Hour})

	// Token signed with the right key but already past its window.
	now := time.Now().UTC()
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "acc_1",
		"username": "alice",
		"iat":      now.Add(-2 * time.Hour).Unix(),
		"exp":      now.Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := issuer.Verify(signed); err != domain.ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	issuer := NewIssuer(Config{Secret: "secret", TTL: time.Hour})
	other := NewIssuer(Config{Secret: "other", TTL: time.Hour})

	tok, err := other.Issue("acc_1", "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := issuer.Verify(tok); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	issuer := NewIssuer(Config{Secret: "secret", TTL: time.Hour})

	tok, err := issuer.Issue("acc_1", "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tampered := tok[:len(tok)-2] + "xx"
	if _, err := issuer.Verify(tampered); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_WrongAlgorithm(t *testing.T) {
	issuer := NewIssuer(Config{Secret: "secret", TTL: time.Hour})

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "acc_1"})
	signed, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := issuer.Verify(signed); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewIssuer_DefaultTTL(t *testing.T) {
	issuer := NewIssuer(Config{Secret: "secret"})
	if issuer.config.TTL != 24*time.Hour {
		t.Fatalf("default TTL = %v, want 24h", issuer.config.TTL)
	}
}
