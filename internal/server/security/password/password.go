// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the longest password bcrypt accepts, in bytes.
const MaxLength = 72

// ErrTooLong is returned by Hash for passwords longer than MaxLength bytes.
var ErrTooLong = errors.New("password exceeds 72 bytes")

// Hasher turns plaintext passwords into one-way hashes and checks them.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// BcryptHasher is a Hasher backed by bcrypt with a fixed cost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, clamped to bcrypt's bounds.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns a salted bcrypt hash of plain; two calls never return the same string.
func (h *BcryptHasher) Hash(plain string) (string, error) {
	if len(plain) > MaxLength {
		return "", ErrTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify reports whether hash was produced from plain. A malformed hash is a mismatch.
func (h *BcryptHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
