// Package password provides one-way credential hashing for account
// passwords. Hashes embed their salt and cost factor, so verification needs
// no state beyond the hash itself.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the shortest password accepted anywhere in the system.
const MinLength = 6

var ErrTooShort = errors.New("password must be at least 6 characters")

// Hasher computes and verifies bcrypt password hashes. The zero value uses
// bcrypt's default cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Costs outside
// bcrypt's valid range fall back to the default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a salted hash from plaintext. The adaptive cost is the point:
// each verification is deliberately expensive to slow offline brute force.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) < MinLength {
		return "", ErrTooShort
	}
	cost := h.cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the stored hash. bcrypt's
// comparison is constant-time over the derived key, so a mismatch reveals
// nothing about where the difference is.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
