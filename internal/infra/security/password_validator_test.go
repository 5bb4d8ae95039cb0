package security

import (
	"errors"
	"testing"
)

func assertViolation(t *testing.T, validator *PasswordValidator, password, expectedCode string, userInputs ...string) {
	t.Helper()

	err := validator.Validate(password, userInputs...)
	if err == nil {
		t.Fatalf("expected validation error for %s", expectedCode)
	}
	var vErr *PasswordValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected PasswordValidationError, got %T", err)
	}
	if vErr.Code != expectedCode {
		t.Fatalf("expected %s code, got %s", expectedCode, vErr.Code)
	}
}

func TestDefaultPasswordValidatorSuccess(t *testing.T) {
	validator := DefaultPasswordValidator()

	if err := validator.Validate("C0mplex!Passphrase#2026"); err != nil {
		t.Fatalf("expected password to pass validation, got %v", err)
	}
}

func TestDefaultPasswordValidatorViolations(t *testing.T) {
	validator := DefaultPasswordValidator()

	assertViolation(t, validator, "Sh0rt!", "min_length")
	assertViolation(t, validator, "12345678", "letter")
	assertViolation(t, validator, "lowercasepassword", "digit")
	assertViolation(t, validator, "password1", "weak_password")
}

func TestCustomPasswordValidator(t *testing.T) {
	validator := NewPasswordValidator(
		MinLengthRule(4),
		RequireDigitRule(),
	)

	if err := validator.Validate("abc"); err == nil {
		t.Fatal("expected min length violation")
	}
	if err := validator.Validate("abcd"); err == nil {
		t.Fatal("expected digit violation")
	}
	if err := validator.Validate("abc1"); err != nil {
		t.Fatalf("expected password to pass custom validation, got %v", err)
	}
}

func TestPasswordStrengthRulePenalizesUserInputs(t *testing.T) {
	validator := NewPasswordValidator(RequirePasswordStrengthRule(3, "laura", "example.com"))

	if err := validator.Validate("laura.example.com1"); err == nil {
		t.Fatal("expected password built from user inputs to be rejected")
	}
}

func TestDefaultPasswordValidatorPenalizesProfileInputs(t *testing.T) {
	validator := DefaultPasswordValidator()

	// Without profile context the value is a long unique string and passes.
	if err := validator.Validate("lauragomez@example.com1"); err != nil {
		t.Fatalf("expected password to pass without profile inputs, got %v", err)
	}

	assertViolation(t, validator, "lauragomez@example.com1", "weak_password",
		"lauragomez@example.com", "Laura", "Gómez", "Martínez")
}
