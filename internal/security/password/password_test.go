package password

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashVerify_RoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "correct horse" {
		t.Fatalf("hash equals plaintext")
	}
	if !h.Verify("correct horse", hash) {
		t.Fatalf("matching password rejected")
	}
	if h.Verify("wrong horse", hash) {
		t.Fatalf("non-matching password accepted")
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password are identical (missing salt)")
	}
	if !h.Verify("secret1", a) || !h.Verify("secret1", b) {
		t.Fatalf("salted hashes do not both verify")
	}
}

func TestHash_TooShort(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	if _, err := h.Hash("short"); err != ErrTooShort {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestNewHasher_CostOutOfRange(t *testing.T) {
	h := NewHasher(99)
	if h.cost != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want default %d", h.cost, bcrypt.DefaultCost)
	}
}

func TestVerify_GarbageHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	if h.Verify("anything", "not-a-bcrypt-hash") {
		t.Fatalf("garbage hash verified")
	}
}
