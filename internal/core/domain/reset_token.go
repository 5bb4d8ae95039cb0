package domain

import "time"

// PasswordResetToken is a single-use credential-recovery capability. At most
// one unused token exists per user at any time; creating a new token
// invalidates every prior unused one.
type PasswordResetToken struct {
	ID        int64
	Value     string
	UserID    int64
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Expired reports whether the token's validity window has elapsed.
func (t PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Valid reports whether the token can still be consumed: never used and not
// yet expired. Once consumed a token stays invalid regardless of remaining
// time to live.
func (t PasswordResetToken) Valid(now time.Time) bool {
	return !t.Used && !t.Expired(now)
}
