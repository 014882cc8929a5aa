package domain

import (
	"encoding/json"
	"time"
)

// AccountStatus is the lifecycle state shared by a Business and its Users.
type AccountStatus string

const (
	StatusPendingActivation AccountStatus = "PENDING_ACTIVATION"
	StatusActive            AccountStatus = "ACTIVE"
)

// Business is the tenant root. Every User and every business resource belongs
// to exactly one Business.
type Business struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Mobile    *string       `json:"mobile,omitempty"`
	Status    AccountStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (b *Business) IsActive() bool {
	return b.Status == StatusActive
}

// User is a login identity inside a Business. Email and Username are unique
// across all businesses because login carries no tenant hint.
type User struct {
	ID           string        `json:"id"`
	BusinessID   string        `json:"business_id"`
	Email        string        `json:"email"`
	Username     string        `json:"username"`
	PasswordHash string        `json:"-"`
	FirstName    string        `json:"first_name,omitempty"`
	LastName     string        `json:"last_name,omitempty"`
	Mobile       *string       `json:"mobile,omitempty"`
	Status       AccountStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// CodePurpose scopes a verification code; codes for different purposes never
// satisfy each other.
type CodePurpose string

const (
	PurposeRegistrationActivation CodePurpose = "REGISTRATION_ACTIVATION"
	PurposePasswordReset          CodePurpose = "PASSWORD_RESET"
	PurposeGenericVerify          CodePurpose = "GENERIC_VERIFY"
)

func (p CodePurpose) Valid() bool {
	switch p {
	case PurposeRegistrationActivation, PurposePasswordReset, PurposeGenericVerify:
		return true
	}
	return false
}

// VerificationCode is a single-use secret bound to (Email, Purpose). Only a
// keyed hash of the code is stored. A code is live while UpdatedAt is younger
// than the configured TTL.
type VerificationCode struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Purpose   CodePurpose     `json:"purpose"`
	CodeHash  string          `json:"code_hash"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ExpiresAt returns the instant the code stops being accepted.
func (c *VerificationCode) ExpiresAt(ttl time.Duration) time.Time {
	return c.UpdatedAt.Add(ttl)
}

// Expired reports whether the code is past its TTL at now. There is no grace period.
func (c *VerificationCode) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(c.ExpiresAt(ttl))
}
