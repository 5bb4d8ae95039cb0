package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/azrrael22/horse-reserved/internal/transport/http/middleware"
	"github.com/azrrael22/horse-reserved/internal/usecase"
)

// PasswordHandler exposes credential self-service endpoints.
type PasswordHandler struct {
	auth   *usecase.AuthService
	resets *usecase.PasswordResetService
	logger *zap.Logger
	isDev  bool
}

// NewPasswordHandler constructs PasswordHandler. In development mode the
// forgot-password response includes the raw token to ease manual testing.
func NewPasswordHandler(auth *usecase.AuthService, resets *usecase.PasswordResetService, log *zap.Logger, isDev bool) *PasswordHandler {
	if log == nil {
		log = zap.NewNop()
	}

	return &PasswordHandler{
		auth:   auth,
		resets: resets,
		logger: log,
		isDev:  isDev,
	}
}

// RegisterRoutes binds password routes.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	r.POST("/change", authMiddleware, h.change)
	r.POST("/forgot", h.forgot)
	r.POST("/reset", h.reset)
}

func (h *PasswordHandler) change(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid password change payload"))
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), usecase.ChangePasswordInput{
		UserID:          userID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		RespondWithMappedError(c, err, http.StatusInternalServerError, "password change failed",
			ErrorCase{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
			ErrorCase{Err: usecase.ErrFederatedAccountNoPassword, Status: http.StatusBadRequest, Message: "account has no local password"},
			ErrorCase{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "current password is incorrect"},
			ErrorCase{Err: usecase.ErrPasswordMismatch, Status: http.StatusBadRequest, Message: "password confirmation does not match"},
			ErrorCase{Err: usecase.ErrPasswordUnchanged, Status: http.StatusBadRequest, Message: "new password must differ from the current one"},
			ErrorCase{Err: usecase.ErrNewPasswordInvalid, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}

// forgot always acknowledges the request: callers cannot distinguish a known
// email from an unknown one.
func (h *PasswordHandler) forgot(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid recovery payload"))
		return
	}

	resp := ForgotPasswordResponse{
		Message: "if the email is registered, a recovery link has been sent",
	}

	result, err := h.resets.RequestReset(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("password recovery request failed", zap.Error(err))
		c.JSON(http.StatusAccepted, resp)
		return
	}

	if h.isDev && result != nil {
		resp.Token = result.Token
		resp.ExpiresAt = &result.ExpiresAt
	}

	c.JSON(http.StatusAccepted, resp)
}

func (h *PasswordHandler) reset(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset payload"))
		return
	}

	if err := h.resets.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		RespondWithMappedError(c, err, http.StatusInternalServerError, "password reset failed",
			ErrorCase{Err: usecase.ErrInvalidOrExpiredToken, Status: http.StatusBadRequest, Message: "invalid or expired reset token"},
			ErrorCase{Err: usecase.ErrNewPasswordInvalid, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}
