// Package auth provides password hashing and bearer token handling.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, or bcrypt.DefaultCost when cost is
// outside bcrypt's accepted range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt digest of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Check reports whether plain matches digest. A malformed or empty digest
// never matches.
func (h *Hasher) Check(plain, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

var defaultHasher = NewHasher(bcrypt.DefaultCost)

// HashPassword hashes plain with the default cost.
func HashPassword(plain string) (string, error) {
	return defaultHasher.Hash(plain)
}

// CheckPassword verifies plain against digest with the default hasher.
func CheckPassword(plain, digest string) bool {
	return defaultHasher.Check(plain, digest)
}
