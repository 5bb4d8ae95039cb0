package usecase

import "errors"

var (
	// ErrEmailAlreadyExists indicates registration collided with an existing account.
	ErrEmailAlreadyExists = errors.New("email already registered")
	// ErrInvalidCredentials indicates the email/password pair did not verify.
	// It deliberately covers both unknown accounts and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserInactive indicates a correctly authenticated but disabled account.
	ErrUserInactive = errors.New("user account is inactive")
	// ErrFederatedAccountNoPassword indicates a password operation on an
	// account that only has a federated identity.
	ErrFederatedAccountNoPassword = errors.New("account has no local password")
	// ErrPasswordMismatch indicates the new password and its confirmation differ.
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	// ErrPasswordUnchanged indicates the new password equals the current one.
	ErrPasswordUnchanged = errors.New("new password must differ from the current one")
	// ErrNewPasswordInvalid indicates the proposed password failed policy validation.
	ErrNewPasswordInvalid = errors.New("new password does not meet requirements")
	// ErrInvalidOrExpiredToken indicates the reset token is unknown, consumed,
	// or past its validity window. The cases are indistinguishable on purpose.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	// ErrUnsupportedProvider indicates a federated login from a provider the
	// service does not integrate with.
	ErrUnsupportedProvider = errors.New("unsupported identity provider")
	// ErrFederatedIdentityIncomplete indicates the provider payload lacks the
	// attributes needed to reconcile an account.
	ErrFederatedIdentityIncomplete = errors.New("federated identity is missing required attributes")
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
)
