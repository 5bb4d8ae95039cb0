package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/azrrael22/horse-reserved/internal/core/domain"
)

func TestPasswordResetRequest(t *testing.T) {
	users := newUserRepoStub(domain.User{
		ID:           1,
		FirstName:    "Alice",
		Email:        "alice@example.com",
		PasswordHash: mustHash(t, "Curr3nt!Passw0rd"),
		IsActive:     true,
	})
	tokens := newResetTokenRepoStub()
	mailer := &mailerStub{}

	svc := NewPasswordResetService(users, tokens, mailer, nil, nil)
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return fixed })

	result, err := svc.RequestReset(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	if result == nil || result.Token == "" {
		t.Fatalf("expected a token to be issued")
	}
	if !result.ExpiresAt.Equal(fixed.Add(30 * time.Minute)) {
		t.Fatalf("expected expiry %v, got %v", fixed.Add(30*time.Minute), result.ExpiresAt)
	}

	stored, err := tokens.GetByValue(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("issued token was not stored: %v", err)
	}
	if stored.UserID != 1 || stored.Used {
		t.Fatalf("unexpected stored token %+v", stored)
	}

	sent := mailer.deliveries()
	if len(sent) != 1 {
		t.Fatalf("expected one mail delivery, got %d", len(sent))
	}
	if sent[0].To != "alice@example.com" || sent[0].TokenValue != result.Token {
		t.Fatalf("unexpected mail %+v", sent[0])
	}
	if sent[0].ValidFor != 30*time.Minute {
		t.Fatalf("expected mail to announce the configured token lifetime, got %v", sent[0].ValidFor)
	}
}

func TestPasswordResetRequestUnknownEmailIsSilent(t *testing.T) {
	tokens := newResetTokenRepoStub()
	mailer := &mailerStub{}
	svc := NewPasswordResetService(newUserRepoStub(), tokens, mailer, nil, nil)

	result, err := svc.RequestReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("expected silent no-op, got error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected no token for unknown email")
	}
	if len(mailer.deliveries()) != 0 {
		t.Fatalf("no mail must be sent for unknown email")
	}
}

func TestPasswordResetRequestFederatedOnlyIsSilent(t *testing.T) {
	users := newUserRepoStub(domain.User{ID: 2, Email: "fed@example.com", IsActive: true})
	tokens := newResetTokenRepoStub()
	mailer := &mailerStub{}
	svc := NewPasswordResetService(users, tokens, mailer, nil, nil)

	result, err := svc.RequestReset(context.Background(), "fed@example.com")
	if err != nil {
		t.Fatalf("expected silent no-op, got error: %v", err)
	}
	if result != nil || len(mailer.deliveries()) != 0 {
		t.Fatalf("federated-only account must not receive a reset token")
	}
}

func TestPasswordResetRequestSupersedesPriorToken(t *testing.T) {
	users := newUserRepoStub(domain.User{
		ID:           1,
		Email:        "alice@example.com",
		PasswordHash: mustHash(t, "Curr3nt!Passw0rd"),
		IsActive:     true,
	})
	tokens := newResetTokenRepoStub()
	svc := NewPasswordResetService(users, tokens, &mailerStub{}, nil, nil)

	first, err := svc.RequestReset(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("first RequestReset returned error: %v", err)
	}
	second, err := svc.RequestReset(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("second RequestReset returned error: %v", err)
	}

	if err := svc.ResetPassword(context.Background(), first.Token, "Br4nd-New!Secret"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("superseded token must be rejected, got %v", err)
	}
	if err := svc.ResetPassword(context.Background(), second.Token, "Br4nd-New!Secret"); err != nil {
		t.Fatalf("latest token must be redeemable, got %v", err)
	}
}

func TestPasswordResetConsume(t *testing.T) {
	users := newUserRepoStub(domain.User{
		ID:           1,
		Email:        "alice@example.com",
		PasswordHash: mustHash(t, "Curr3nt!Passw0rd"),
		IsActive:     true,
	})
	tokens := newResetTokenRepoStub()
	svc := NewPasswordResetService(users, tokens, &mailerStub{}, nil, nil)

	result, err := svc.RequestReset(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	if err := svc.ResetPassword(context.Background(), result.Token, "Br4nd-New!Secret"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}

	if users.updatedPasswordID != 1 {
		t.Fatalf("expected password update for user 1, got %d", users.updatedPasswordID)
	}

	stored, err := tokens.GetByValue(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("stored token lookup failed: %v", err)
	}
	if !stored.Used {
		t.Fatalf("consumed token must be marked used")
	}

	// Single use: redeeming again fails even within the validity window.
	if err := svc.ResetPassword(context.Background(), result.Token, "An0ther!Secret9"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken on reuse, got %v", err)
	}
}

func TestPasswordResetConsumeExpired(t *testing.T) {
	users := newUserRepoStub(domain.User{
		ID:           1,
		Email:        "alice@example.com",
		PasswordHash: mustHash(t, "Curr3nt!Passw0rd"),
		IsActive:     true,
	})
	tokens := newResetTokenRepoStub()
	svc := NewPasswordResetService(users, tokens, &mailerStub{}, nil, nil)

	issued := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return issued })

	result, err := svc.RequestReset(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	// Exactly at the expiry boundary the token is no longer valid.
	svc.WithClock(func() time.Time { return issued.Add(30 * time.Minute) })
	if err := svc.ResetPassword(context.Background(), result.Token, "Br4nd-New!Secret"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken at expiry, got %v", err)
	}
	if users.updatedPasswordID != 0 {
		t.Fatalf("password must not change for an expired token")
	}
}

func TestPasswordResetConsumeUnknownToken(t *testing.T) {
	svc := NewPasswordResetService(newUserRepoStub(), newResetTokenRepoStub(), &mailerStub{}, nil, nil)

	if err := svc.ResetPassword(context.Background(), "no-such-token", "Br4nd-New!Secret"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
	if err := svc.ResetPassword(context.Background(), "", "Br4nd-New!Secret"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken for blank token, got %v", err)
	}
}

func TestPasswordResetConsumeWeakPassword(t *testing.T) {
	users := newUserRepoStub(domain.User{
		ID:           1,
		Email:        "alice@example.com",
		PasswordHash: mustHash(t, "Curr3nt!Passw0rd"),
		IsActive:     true,
	})
	tokens := newResetTokenRepoStub()
	svc := NewPasswordResetService(users, tokens, &mailerStub{}, nil, nil)

	result, err := svc.RequestReset(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	if err := svc.ResetPassword(context.Background(), result.Token, "short"); !errors.Is(err, ErrNewPasswordInvalid) {
		t.Fatalf("expected ErrNewPasswordInvalid, got %v", err)
	}

	// A policy failure must not consume the token.
	if err := svc.ResetPassword(context.Background(), result.Token, "Br4nd-New!Secret"); err != nil {
		t.Fatalf("token must remain redeemable after policy failure, got %v", err)
	}
}

func TestPasswordResetConsumeRejectsProfileDerivedPassword(t *testing.T) {
	users := newUserRepoStub(domain.User{
		ID:           1,
		FirstName:    "Alice",
		Email:        "alice@example.com",
		PasswordHash: mustHash(t, "Curr3nt!Passw0rd"),
		IsActive:     true,
	})
	tokens := newResetTokenRepoStub()
	svc := NewPasswordResetService(users, tokens, &mailerStub{}, nil, nil)

	result, err := svc.RequestReset(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	// Strength scoring sees the account's own email and names.
	if err := svc.ResetPassword(context.Background(), result.Token, "alice@example.com1"); !errors.Is(err, ErrNewPasswordInvalid) {
		t.Fatalf("expected ErrNewPasswordInvalid, got %v", err)
	}
	if users.updatedPasswordID != 0 {
		t.Fatalf("password must not change when the policy rejects it")
	}
}
