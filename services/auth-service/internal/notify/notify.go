// Package notify hands verification codes to the delivery side. The auth
// service does not send email itself; it publishes an event that a mailer
// consumes.
package notify

import (
	"context"
	"time"
)

type EventType string

const (
	EventActivationCode    EventType = "activation_code"
	EventPasswordResetCode EventType = "password_reset_code"
)

// Event carries a plaintext code to the delivery side. It is the only place
// a plaintext code leaves the process.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Email      string    `json:"email"`
	Code       string    `json:"code"`
	BusinessID string    `json:"business_id,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}
