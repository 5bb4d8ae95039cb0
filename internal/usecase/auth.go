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

// AuthService coordinates registration, password login, and credential
// self-service for authenticated users.
type AuthService struct {
	users             port.UserRepository
	signer            *security.TokenSigner
	passwordValidator *security.PasswordValidator
	logger            *zap.Logger
}

// AuthResult is the outcome of a successful authentication: a signed access
// token and the authenticated profile.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// RegisterInput captures a self-registration request.
type RegisterInput struct {
	FirstName      string
	LastName       string
	SecondLastName string
	DocumentType   string
	DocumentNumber string
	Email          string
	Password       string
	Phone          *string
}

// ChangePasswordInput captures a password change for an authenticated user.
type ChangePasswordInput struct {
	UserID          int64
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// NewAuthService constructs an AuthService.
func NewAuthService(users port.UserRepository, signer *security.TokenSigner, validator *security.PasswordValidator, log *zap.Logger) *AuthService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthService{
		users:             users,
		signer:            signer,
		passwordValidator: validator,
		logger:            log,
	}
}

// Register creates a new active customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Email = strings.TrimSpace(input.Email)
	if input.FirstName == "" || input.LastName == "" || input.Email == "" {
		return nil, fmt.Errorf("first name, last name and email are required")
	}

	documentType, err := domain.ParseDocumentType(input.DocumentType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.DocumentNumber) == "" {
		return nil, fmt.Errorf("document number is required")
	}

	if err := s.passwordValidator.Validate(input.Password, input.Email, input.FirstName, input.LastName, input.SecondLastName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNewPasswordInvalid, err)
	}

	exists, err := s.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("check email availability: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		SecondLastName: input.SecondLastName,
		DocumentType:   documentType,
		DocumentNumber: strings.TrimSpace(input.DocumentNumber),
		Email:          input.Email,
		PasswordHash:   hash,
		Phone:          input.Phone,
		Role:           domain.DefaultRole,
		IsActive:       true,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		// Concurrent registration can slip past the availability check.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.Int64("user_id", created.ID),
		zap.String("email", logger.MaskEmail(created.Email)),
	)

	return s.issue(created)
}

// Login authenticates an email/password pair. Unknown accounts and wrong
// passwords produce the same error; the inactive state is only revealed after
// the credential verifies.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	ok, err := security.VerifyPassword(password, user.CredentialDigest())
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.Enabled() {
		return nil, ErrUserInactive
	}

	s.logger.Info("user logged in",
		zap.Int64("user_id", user.ID),
		zap.String("email", logger.MaskEmail(user.Email)),
	)

	return s.issue(user)
}

// CurrentProfile loads the profile for an authenticated subject.
func (s *AuthService) CurrentProfile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// ChangePassword rotates an authenticated user's credential. The checks run
// in a fixed order: account must carry a local password, the current password
// must verify, the confirmation must match, and the new password must differ
// from the current one.
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if !user.HasPassword() {
		return ErrFederatedAccountNoPassword
	}

	ok, err := security.VerifyPassword(input.CurrentPassword, user.CredentialDigest())
	if err != nil {
		return fmt.Errorf("verify current password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	if input.NewPassword != input.ConfirmPassword {
		return ErrPasswordMismatch
	}

	same, err := security.VerifyPassword(input.NewPassword, user.CredentialDigest())
	if err != nil {
		return fmt.Errorf("compare new password: %w", err)
	}
	if same {
		return ErrPasswordUnchanged
	}

	if err := s.passwordValidator.Validate(input.NewPassword, user.Email, user.FirstName, user.LastName, user.SecondLastName); err != nil {
		return fmt.Errorf("%w: %v", ErrNewPasswordInvalid, err)
	}

	hash, err := security.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password changed", zap.Int64("user_id", user.ID))

	return nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.signer.Issue(user.ID, user.AuthorityLabel())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}
