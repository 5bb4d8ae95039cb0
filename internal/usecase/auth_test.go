package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/azrrael22/horse-reserved/internal/core/domain"
)

func validRegisterInput() RegisterInput {
	return RegisterInput{
		FirstName:      "Laura",
		LastName:       "Gómez",
		DocumentType:   "CEDULA",
		DocumentNumber: "1020304050",
		Email:          "laura@example.com",
		Password:       "Tr0tando-Al-Amanecer!7",
	}
}

func TestAuthServiceRegister(t *testing.T) {
	users := newUserRepoStub()
	signer := newTestSigner(t, time.Hour)
	svc := NewAuthService(users, signer, nil, nil)

	result, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if result.Token == "" {
		t.Fatalf("expected access token to be issued")
	}
	if result.User.ID == 0 {
		t.Fatalf("expected persisted user to carry an id")
	}
	if result.User.Role != domain.RoleCliente {
		t.Fatalf("expected role cliente, got %s", result.User.Role)
	}
	if !result.User.IsActive {
		t.Fatalf("expected new account to be active")
	}
	if result.User.PasswordHash == "Tr0tando-Al-Amanecer!7" {
		t.Fatalf("password must not be stored in plaintext")
	}

	claims, err := signer.Verify(result.Token)
	if err != nil {
		t.Fatalf("issued token did not verify: %v", err)
	}
	if claims.UserID != result.User.ID {
		t.Fatalf("token subject %d does not match persisted user %d", claims.UserID, result.User.ID)
	}
	if claims.Role != string(domain.RoleCliente) {
		t.Fatalf("token role %q does not match persisted role", claims.Role)
	}
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	users := newUserRepoStub(domain.User{
		ID:           1,
		Email:        "laura@example.com",
		PasswordHash: mustHash(t, "OtherPassw0rd!"),
		IsActive:     true,
	})
	svc := NewAuthService(users, newTestSigner(t, time.Hour), nil, nil)

	input := validRegisterInput()
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}

	// Email matching is case-insensitive.
	input.Email = "LAURA@EXAMPLE.COM"
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists for case variant, got %v", err)
	}
}

func TestAuthServiceRegisterWeakPassword(t *testing.T) {
	svc := NewAuthService(newUserRepoStub(), newTestSigner(t, time.Hour), nil, nil)

	input := validRegisterInput()
	input.Password = "short"
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, ErrNewPasswordInvalid) {
		t.Fatalf("expected ErrNewPasswordInvalid, got %v", err)
	}
}

func TestAuthServiceRegisterRejectsProfileDerivedPassword(t *testing.T) {
	svc := NewAuthService(newUserRepoStub(), newTestSigner(t, time.Hour), nil, nil)

	// Long enough and mixed, but built from the applicant's own email.
	input := validRegisterInput()
	input.Password = "laura@example.com1"
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, ErrNewPasswordInvalid) {
		t.Fatalf("expected ErrNewPasswordInvalid, got %v", err)
	}
}

func TestAuthServiceLogin(t *testing.T) {
	users := newUserRepoStub(domain.User{
		ID:           7,
		FirstName:    "Laura",
		Email:        "laura@example.com",
		PasswordHash: mustHash(t, "S3cure!Passw0rd"),
		Role:         domain.RoleCliente,
		IsActive:     true,
	})
	signer := newTestSigner(t, time.Hour)
	svc := NewAuthService(users, signer, nil, nil)

	result, err := svc.Login(context.Background(), "laura@example.com", "S3cure!Passw0rd")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	claims, err := signer.Verify(result.Token)
	if err != nil {
		t.Fatalf("issued token did not verify: %v", err)
	}
	if claims.UserID != 7 {
		t.Fatalf("expected token subject 7, got %d", claims.UserID)
	}
}

func TestAuthServiceLoginCollapsesFailures(t *testing.T) {
	users := newUserRepoStub(domain.User{
		ID:           7,
		Email:        "laura@example.com",
		PasswordHash: mustHash(t, "S3cure!Passw0rd"),
		Role:         domain.RoleCliente,
		IsActive:     true,
	})
	svc := NewAuthService(users, newTestSigner(t, time.Hour), nil, nil)

	// Unknown account and wrong password must be indistinguishable.
	_, unknownErr := svc.Login(context.Background(), "nobody@example.com", "S3cure!Passw0rd")
	_, wrongErr := svc.Login(context.Background(), "laura@example.com", "not-the-password")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown account, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongErr)
	}
}

func TestAuthServiceLoginFederatedOnlyAccount(t *testing.T) {
	users := newUserRepoStub(domain.User{
		ID:       3,
		Email:    "fed@example.com",
		Role:     domain.RoleCliente,
		IsActive: true,
	})
	svc := NewAuthService(users, newTestSigner(t, time.Hour), nil, nil)

	if _, err := svc.Login(context.Background(), "fed@example.com", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for federated-only account, got %v", err)
	}
}

func TestAuthServiceLoginInactive(t *testing.T) {
	users := newUserRepoStub(domain.User{
		ID:           9,
		Email:        "laura@example.com",
		PasswordHash: mustHash(t, "S3cure!Passw0rd"),
		Role:         domain.RoleCliente,
		IsActive:     false,
	})
	svc := NewAuthService(users, newTestSigner(t, time.Hour), nil, nil)

	// Wrong password on an inactive account still reports bad credentials:
	// the inactive state is only disclosed after the credential verifies.
	if _, err := svc.Login(context.Background(), "laura@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials before disclosure, got %v", err)
	}

	if _, err := svc.Login(context.Background(), "laura@example.com", "S3cure!Passw0rd"); !errors.Is(err, ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
}

func TestAuthServiceCurrentProfile(t *testing.T) {
	users := newUserRepoStub(domain.User{ID: 4, Email: "laura@example.com", IsActive: true})
	svc := NewAuthService(users, newTestSigner(t, time.Hour), nil, nil)

	user, err := svc.CurrentProfile(context.Background(), 4)
	if err != nil {
		t.Fatalf("CurrentProfile returned error: %v", err)
	}
	if user.Email != "laura@example.com" {
		t.Fatalf("unexpected profile email %s", user.Email)
	}

	if _, err := svc.CurrentProfile(context.Background(), 99); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthServiceChangePassword(t *testing.T) {
	users := newUserRepoStub(domain.User{
		ID:           5,
		Email:        "laura@example.com",
		PasswordHash: mustHash(t, "Curr3nt!Passw0rd"),
		IsActive:     true,
	})
	svc := NewAuthService(users, newTestSigner(t, time.Hour), nil, nil)

	err := svc.ChangePassword(context.Background(), ChangePasswordInput{
		UserID:          5,
		CurrentPassword: "Curr3nt!Passw0rd",
		NewPassword:     "Br4nd-New!Secret",
		ConfirmPassword: "Br4nd-New!Secret",
	})
	if err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	if users.updatedPasswordID != 5 {
		t.Fatalf("expected password update for user 5, got %d", users.updatedPasswordID)
	}

	// Old credential no longer verifies, new one does.
	if _, err := svc.Login(context.Background(), "laura@example.com", "Curr3nt!Passw0rd"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "laura@example.com", "Br4nd-New!Secret"); err != nil {
		t.Fatalf("expected new password to verify, got %v", err)
	}
}

func TestAuthServiceChangePasswordOrderedChecks(t *testing.T) {
	currentHash := mustHash(t, "Curr3nt!Passw0rd")

	cases := []struct {
		name  string
		user  domain.User
		input ChangePasswordInput
		want  error
	}{
		{
			name: "unknown user",
			user: domain.User{ID: 1, PasswordHash: currentHash, IsActive: true},
			input: ChangePasswordInput{
				UserID: 42, CurrentPassword: "Curr3nt!Passw0rd",
				NewPassword: "Br4nd-New!Secret", ConfirmPassword: "Br4nd-New!Secret",
			},
			want: ErrUserNotFound,
		},
		{
			name: "federated account without password",
			user: domain.User{ID: 1, IsActive: true},
			input: ChangePasswordInput{
				UserID: 1, CurrentPassword: "anything",
				NewPassword: "Br4nd-New!Secret", ConfirmPassword: "Br4nd-New!Secret",
			},
			want: ErrFederatedAccountNoPassword,
		},
		{
			name: "wrong current password",
			user: domain.User{ID: 1, PasswordHash: currentHash, IsActive: true},
			input: ChangePasswordInput{
				UserID: 1, CurrentPassword: "wrong",
				NewPassword: "Br4nd-New!Secret", ConfirmPassword: "Br4nd-New!Secret",
			},
			want: ErrInvalidCredentials,
		},
		{
			name: "confirmation mismatch",
			user: domain.User{ID: 1, PasswordHash: currentHash, IsActive: true},
			input: ChangePasswordInput{
				UserID: 1, CurrentPassword: "Curr3nt!Passw0rd",
				NewPassword: "Br4nd-New!Secret", ConfirmPassword: "different",
			},
			want: ErrPasswordMismatch,
		},
		{
			name: "new password unchanged",
			user: domain.User{ID: 1, PasswordHash: currentHash, IsActive: true},
			input: ChangePasswordInput{
				UserID: 1, CurrentPassword: "Curr3nt!Passw0rd",
				NewPassword: "Curr3nt!Passw0rd", ConfirmPassword: "Curr3nt!Passw0rd",
			},
			want: ErrPasswordUnchanged,
		},
		{
			name: "weak new password",
			user: domain.User{ID: 1, PasswordHash: currentHash, IsActive: true},
			input: ChangePasswordInput{
				UserID: 1, CurrentPassword: "Curr3nt!Passw0rd",
				NewPassword: "short", ConfirmPassword: "short",
			},
			want: ErrNewPasswordInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := newUserRepoStub(tc.user)
			svc := NewAuthService(users, newTestSigner(t, time.Hour), nil, nil)

			if err := svc.ChangePassword(context.Background(), tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if users.updatedPasswordID != 0 {
				t.Fatalf("password must not be updated on failure")
			}
		})
	}
}
