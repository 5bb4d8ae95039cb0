package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/azrrael22/horse-reserved/internal/core/domain"
	"github.com/azrrael22/horse-reserved/internal/core/port"
	"github.com/azrrael22/horse-reserved/internal/infra/logger"
	"github.com/azrrael22/horse-reserved/internal/infra/security"
	"github.com/azrrael22/horse-reserved/internal/repository"
)

const (
	defaultResetTTL      = 30 * time.Minute
	resetTokenByteLength = 32
)

// PasswordResetService coordinates the single-use reset token protocol:
// request, delivery, and consumption.
type PasswordResetService struct {
	users             port.UserRepository
	tokens            port.ResetTokenRepository
	mailer            port.ResetMailer
	passwordValidator *security.PasswordValidator
	logger            *zap.Logger
	now               func() time.Time
	resetTTL          time.Duration
}

// ResetRequestResult reports a reset request that actually produced a token.
// Callers must not leak it to unauthenticated clients outside development.
type ResetRequestResult struct {
	Token     string
	ExpiresAt time.Time
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(users port.UserRepository, tokens port.ResetTokenRepository, mailer port.ResetMailer, validator *security.PasswordValidator, log *zap.Logger) *PasswordResetService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &PasswordResetService{
		users:             users,
		tokens:            tokens,
		mailer:            mailer,
		passwordValidator: validator,
		logger:            log,
		now:               time.Now,
		resetTTL:          defaultResetTTL,
	}
}

// WithClock overrides the time source, primarily for tests.
func (s *PasswordResetService) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithTTL overrides the reset token validity window.
func (s *PasswordResetService) WithTTL(ttl time.Duration) {
	if ttl > 0 {
		s.resetTTL = ttl
	}
}

// RequestReset starts a password recovery for the email. Unknown addresses
// and federated-only accounts are silent no-ops: the caller cannot tell them
// apart from a successful request. Any prior unused token for the account is
// superseded before the new one is stored.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (*ResetRequestResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("reset requested for unknown email",
				zap.String("email", logger.MaskEmail(email)),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.HasPassword() {
		s.logger.Info("reset requested for federated-only account",
			zap.Int64("user_id", user.ID),
		)
		return nil, nil
	}

	value, err := security.GenerateSecureToken(resetTokenByteLength)
	if err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}

	now := s.now().UTC()
	token := domain.PasswordResetToken{
		Value:     value,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.resetTTL),
		Used:      false,
		CreatedAt: now,
	}

	// Issue supersedes any prior unused token in the same transaction.
	stored, err := s.tokens.Issue(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("store reset token: %w", err)
	}

	s.mailer.NotifyPasswordReset(ctx, port.PasswordResetMail{
		To:         user.Email,
		FirstName:  user.FirstName,
		TokenValue: stored.Value,
		ValidFor:   s.resetTTL,
	})

	s.logger.Info("reset token issued",
		zap.Int64("user_id", user.ID),
		zap.Time("expires_at", stored.ExpiresAt),
	)

	return &ResetRequestResult{Token: stored.Value, ExpiresAt: stored.ExpiresAt}, nil
}

// ResetPassword consumes a reset token and installs the new password. An
// unknown, already-used, or expired token yields the same error. The token is
// marked consumed only after the password update lands, so a failed update
// leaves the token redeemable.
func (s *PasswordResetService) ResetPassword(ctx context.Context, tokenValue, newPassword string) error {
	tokenValue = strings.TrimSpace(tokenValue)
	if tokenValue == "" {
		return ErrInvalidOrExpiredToken
	}

	token, err := s.tokens.GetByValue(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	if !token.Valid(s.now().UTC()) {
		return ErrInvalidOrExpiredToken
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if err := s.passwordValidator.Validate(newPassword, user.Email, user.FirstName, user.LastName, user.SecondLastName); err != nil {
		return fmt.Errorf("%w: %v", ErrNewPasswordInvalid, err)
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.tokens.MarkUsed(ctx, token.ID); err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}

	s.logger.Info("password reset completed", zap.Int64("user_id", user.ID))

	return nil
}
