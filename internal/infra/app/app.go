package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/azrrael22/horse-reserved/internal/infra/config"
	"github.com/azrrael22/horse-reserved/internal/infra/database"
	"github.com/azrrael22/horse-reserved/internal/infra/logger"
	"github.com/azrrael22/horse-reserved/internal/infra/mail"
	"github.com/azrrael22/horse-reserved/internal/infra/security"
	postgresrepo "github.com/azrrael22/horse-reserved/internal/repository/postgres"
	"github.com/azrrael22/horse-reserved/internal/transport/http/middleware"
	"github.com/azrrael22/horse-reserved/internal/transport/http/routes"
	"github.com/azrrael22/horse-reserved/internal/usecase"
)

// Application wires configuration, infrastructure, services, and the HTTP
// engine together.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	mailer *mail.Dispatcher
}

// New assembles the application from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	keyProvider, err := security.NewFileKeyProvider(cfg.JWT.KeyDirectory)
	if err != nil {
		return nil, fmt.Errorf("init key provider: %w", err)
	}

	signer, err := security.NewTokenSigner(keyProvider, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token signer: %w", err)
	}

	if err := security.ConfigureArgon2(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	mailDispatcher := mail.NewDispatcher(
		mail.NewSMTPSender(cfg.SMTP),
		cfg.SMTP.From,
		cfg.Reset.FrontendURL,
		log,
	)
	mailDispatcher.Start()

	passwordValidator := security.DefaultPasswordValidator()

	authService := usecase.NewAuthService(repos.Users, signer, passwordValidator, log)
	federationService := usecase.NewFederationService(repos.Users, signer, log)
	resetService := usecase.NewPasswordResetService(repos.Users, repos.ResetTokens, mailDispatcher, passwordValidator, log)
	resetService.WithTTL(cfg.Reset.TokenTTL)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config: cfg,
		Logger: log,
		Services: routes.ServiceSet{
			Auth:          authService,
			Federation:    federationService,
			PasswordReset: resetService,
		},
		Signer:   signer,
		Database: pool,
		Metrics:  metrics,
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		mailer: mailDispatcher,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.mailer != nil {
			a.mailer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr(),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("address", srv.Addr),
		zap.String("env", a.cfg.App.Env),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("run http server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down auth API")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return <-errCh
}
