package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/azrrael22/horse-reserved/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary describes the view of a user returned by the API.
type UserSummary struct {
	ID             int64   `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	SecondLastName string  `json:"second_last_name,omitempty"`
	DocumentType   string  `json:"document_type"`
	DocumentNumber string  `json:"document_number"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone,omitempty"`
	Role           string  `json:"role"`
	IsActive       bool    `json:"is_active"`
}

// NewUserSummary maps a domain user onto its API representation.
func NewUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:             user.ID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		SecondLastName: user.SecondLastName,
		DocumentType:   string(user.DocumentType),
		DocumentNumber: user.DocumentNumber,
		Email:          user.Email,
		Phone:          user.Phone,
		Role:           string(user.Role),
		IsActive:       user.IsActive,
	}
}

// RegisterRequest defines the payload for the registration endpoint.
type RegisterRequest struct {
	FirstName      string  `json:"first_name" binding:"required"`
	LastName       string  `json:"last_name" binding:"required"`
	SecondLastName string  `json:"second_last_name"`
	DocumentType   string  `json:"document_type" binding:"required"`
	DocumentNumber string  `json:"document_number" binding:"required"`
	Email          string  `json:"email" binding:"required,email"`
	Password       string  `json:"password" binding:"required"`
	Phone          *string `json:"phone"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// FederatedLoginRequest carries an identity asserted by an external provider.
type FederatedLoginRequest struct {
	Provider   string `json:"provider" binding:"required"`
	ExternalID string `json:"external_id" binding:"required"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	PictureURL string `json:"picture_url"`
}

// AuthResponse describes the response returned for a successful authentication.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	User        UserSummary `json:"user"`
}

// ChangePasswordRequest defines the payload for the password change endpoint.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ForgotPasswordRequest defines the payload to start a password recovery.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPasswordResponse acknowledges a recovery request. The token is only
// populated in development environments.
type ForgotPasswordResponse struct {
	Message   string     `json:"message"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ResetPasswordRequest defines the payload to consume a reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
