package port

import (
	"context"

	"github.com/azrrael22/horse-reserved/internal/core/domain"
)

// ResetTokenRepository manages password reset token records.
type ResetTokenRepository interface {
	// Issue atomically invalidates every unused token owned by the user and
	// inserts the new one, so at most one live token exists per user even
	// under concurrent requests.
	Issue(ctx context.Context, token domain.PasswordResetToken) (*domain.PasswordResetToken, error)
	GetByValue(ctx context.Context, value string) (*domain.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id int64) error
}
