package password

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinCost is the lowest bcrypt work factor the hasher will use.
const MinCost = 10

const (
	minLength = 8
	// bcrypt ignores input past 72 bytes.
	maxLength = 72
)

// ErrWeakPassword is wrapped by every Validate failure.
var ErrWeakPassword = errors.New("password does not meet policy")

// Hasher hashes and checks passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
	Validate(password string) error
}

// BcryptHasher implements Hasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps cost into [MinCost, bcrypt.MaxCost].
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < MinCost {
		cost = MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Cost() int {
	return h.cost
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Check reports whether password matches hash. A malformed hash is a plain
// mismatch. The comparison is constant-time inside bcrypt.
func (h *BcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Validate enforces 8 to 72 bytes with at least one letter and one digit.
func (h *BcryptHasher) Validate(password string) error {
	if len(password) < minLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, minLength)
	}
	if len(password) > maxLength {
		return fmt.Errorf("%w: must be at most %d bytes", ErrWeakPassword, maxLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: must contain a letter and a digit", ErrWeakPassword)
	}

	return nil
}
