package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/azrrael22/horse-reserved/internal/core/domain"
	"github.com/azrrael22/horse-reserved/internal/transport/http/middleware"
	"github.com/azrrael22/horse-reserved/internal/usecase"
)

// AuthHandler exposes registration, login, and federated login endpoints.
type AuthHandler struct {
	auth       *usecase.AuthService
	federation *usecase.FederationService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, federation *usecase.FederationService) *AuthHandler {
	return &AuthHandler{
		auth:       auth,
		federation: federation,
	}
}

// RegisterRoutes binds authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/federated", h.federated)
	r.GET("/me", authMiddleware, h.me)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	result, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		SecondLastName: req.SecondLastName,
		DocumentType:   req.DocumentType,
		DocumentNumber: req.DocumentNumber,
		Email:          req.Email,
		Password:       req.Password,
		Phone:          req.Phone,
	})
	if err != nil {
		RespondWithMappedError(c, err, http.StatusBadRequest, "registration failed",
			ErrorCase{Err: usecase.ErrEmailAlreadyExists, Status: http.StatusConflict, Message: "email already registered"},
			ErrorCase{Err: usecase.ErrNewPasswordInvalid, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		)
		return
	}

	c.JSON(http.StatusCreated, newAuthResponse(result))
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, http.StatusInternalServerError, "login failed",
			ErrorCase{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
			ErrorCase{Err: usecase.ErrUserInactive, Status: http.StatusForbidden, Message: "user account is inactive"},
		)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

func (h *AuthHandler) federated(c *gin.Context) {
	var req FederatedLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid federated login payload"))
		return
	}

	result, err := h.federation.Reconcile(c.Request.Context(), req.Provider, domain.ExternalIdentity{
		ExternalID: req.ExternalID,
		Email:      req.Email,
		FullName:   req.FullName,
		PictureURL: req.PictureURL,
	})
	if err != nil {
		RespondWithMappedError(c, err, http.StatusInternalServerError, "federated login failed",
			ErrorCase{Err: usecase.ErrUnsupportedProvider, Status: http.StatusBadRequest, Message: "unsupported identity provider"},
			ErrorCase{Err: usecase.ErrFederatedIdentityIncomplete, Status: http.StatusBadRequest, Message: "federated identity is missing required attributes"},
			ErrorCase{Err: usecase.ErrUserInactive, Status: http.StatusForbidden, Message: "user account is inactive"},
		)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

func (h *AuthHandler) me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	user, err := h.auth.CurrentProfile(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, http.StatusInternalServerError, "profile lookup failed",
			ErrorCase{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		)
		return
	}

	c.JSON(http.StatusOK, NewUserSummary(user))
}

func newAuthResponse(result *usecase.AuthResult) AuthResponse {
	expiresIn := int(time.Until(result.ExpiresAt).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}

	return AuthResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		User:        NewUserSummary(result.User),
	}
}
