package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/azrrael22/horse-reserved/internal/infra/config"
	"github.com/azrrael22/horse-reserved/internal/infra/security"
	"github.com/azrrael22/horse-reserved/internal/transport/http/handlers"
	"github.com/azrrael22/horse-reserved/internal/transport/http/middleware"
	"github.com/azrrael22/horse-reserved/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Federation    *usecase.FederationService
	PasswordReset *usecase.PasswordResetService
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Services ServiceSet
	Signer   *security.TokenSigner
	Database DatabaseChecker
	Metrics  *middleware.HTTPMetrics
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Signer)

	healthChecks := make([]handlers.ReadinessCheck, 0, 1)
	if deps.Database != nil {
		healthChecks = append(healthChecks, handlers.ReadinessCheck{
			Name:  "database",
			Probe: deps.Database.Ping,
		})
	}

	healthHandler := handlers.NewHealthHandler(healthChecks...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")

		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.Federation)
		authHandler.RegisterRoutes(authGroup, authMiddleware)

		passwordHandler := handlers.NewPasswordHandler(
			deps.Services.Auth,
			deps.Services.PasswordReset,
			deps.Logger,
			deps.Config.IsDevelopment(),
		)
		passwordHandler.RegisterRoutes(authGroup.Group("/password"), authMiddleware)
	}

	return r
}
