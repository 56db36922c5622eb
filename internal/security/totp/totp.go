// Package totp implements RFC 6238 time-based one-time passwords: 20-byte
// secrets, SHA-1 HOTP truncation, 6 digits, 30-second steps with one step of
// skew tolerated either side.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	secretBytes = 20
	Digits      = 6
	Period      = 30 // seconds
	skew        = 1  // steps accepted either side of now
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns a fresh base32-encoded shared secret.
func GenerateSecret() (string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return b32.EncodeToString(raw), nil
}

// ProvisionURI builds the otpauth:// URI an authenticator app scans during
// enrollment.
func ProvisionURI(secret, issuer, account string) string {
	label := url.PathEscape(issuer + ":" + account)

	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("period", strconv.Itoa(Period))
	v.Set("digits", strconv.Itoa(Digits))
	v.Set("algorithm", "SHA1")

	return "otpauth://totp/" + label + "?" + v.Encode()
}

// Verify reports whether code is valid for secret at the given instant,
// accepting one time step of clock skew either side. The comparison is
// constant-time per candidate step.
func Verify(secret, code string, now time.Time) bool {
	code = normalize(code)
	if len(code) != Digits || !numeric(code) {
		return false
	}

	base := now.Unix() / Period
	for step := int64(-skew); step <= skew; step++ {
		counter := base + step
		if counter < 0 {
			continue
		}
		expected, err := CodeAt(secret, counter)
		if err != nil {
			return false
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

// CodeAt computes the HOTP value for a secret at an explicit counter.
// Exposed so tests can derive the code a real authenticator would show.
func CodeAt(secret string, counter int64) (string, error) {
	key, err := b32.DecodeString(strings.ToUpper(normalize(secret)))
	if err != nil {
		return "", fmt.Errorf("decode totp secret: %w", err)
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < Digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", Digits, bin%mod), nil
}

// CodeNow computes the current code for a secret.
func CodeNow(secret string, now time.Time) (string, error) {
	return CodeAt(secret, now.Unix()/Period)
}

func normalize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " ", ""))
}

func numeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
