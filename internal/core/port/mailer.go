package port

import (
	"context"
	"time"
)

// PasswordResetMail carries the data needed to deliver a recovery link.
// ValidFor is the token's lifetime at issue time; the mail body tells the
// recipient how long the link stays usable.
type PasswordResetMail struct {
	To         string
	FirstName  string
	TokenValue string
	ValidFor   time.Duration
}

// ResetMailer delivers password reset notifications. Delivery is
// fire-and-forget: implementations must never let a delivery failure reach
// the caller's outcome.
type ResetMailer interface {
	NotifyPasswordReset(ctx context.Context, mail PasswordResetMail)
}
