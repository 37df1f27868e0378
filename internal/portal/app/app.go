package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/nimbushost/vps-portal/internal/portal/http"
	"github.com/nimbushost/vps-portal/internal/portal/mail"
	"github.com/nimbushost/vps-portal/internal/portal/service"
	"github.com/nimbushost/vps-portal/internal/portal/store"
	"github.com/nimbushost/vps-portal/internal/portal/store/drivers/sqlite"
	"github.com/nimbushost/vps-portal/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires the portal's dependencies together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	mailer mail.Mailer

	tokenService     *service.TokenService
	authService      *service.AuthService
	accountService   *service.AccountService
	twoFactorService *service.TwoFactorService
	pricingService   *service.PricingService
	housekeeper      *service.Housekeeper

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "vps-portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeper.Start()

	app.logger.Info("portal starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops housekeeping, and closes the
// database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeper.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("portal stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied")
	return nil
}

// initMailer picks SMTP when a host is configured and falls back to logging
// mail locally in dev.
func (app *Application) initMailer() {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("no SMTP host configured, verification emails are logged only")
		app.mailer = &mail.LogMailer{Logger: app.logger}
		return
	}
	app.mailer = mail.NewSMTPMailer(mail.SMTPConfig{
		Host:        app.cfg.SMTPHost,
		Port:        app.cfg.SMTPPort,
		Username:    app.cfg.SMTPUsername,
		Password:    app.cfg.SMTPPassword,
		FromAddress: app.cfg.MailFrom,
		FromName:    app.cfg.MailFromName,
		VerifyURL:   app.cfg.VerifyURL,
	})
}

func (app *Application) initServices() {
	app.tokenService = service.NewTokenService(
		[]byte(app.cfg.AccessSecret),
		[]byte(app.cfg.RefreshSecret),
		app.cfg.Issuer,
	)
	app.tokenService.AccessTTL = app.cfg.AccessTTL
	app.tokenService.RefreshTTL = app.cfg.RefreshTTL

	app.authService = &service.AuthService{
		Store:  app.db,
		Tokens: app.tokenService,
	}
	app.accountService = &service.AccountService{
		Store:  app.db,
		Tokens: app.tokenService,
		Mailer: app.mailer,
	}
	app.twoFactorService = &service.TwoFactorService{
		Store:  app.db,
		Tokens: app.tokenService,
	}
	app.pricingService = service.NewPricingService()

	app.housekeeper = &service.Housekeeper{
		Store:    app.db,
		Interval: app.cfg.HousekeepingInterval,
		Logger:   app.logger,
	}
}

func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(BuildVersion, app.db, app.logger)
	app.router.TokenService = app.tokenService
	app.router.AuthService = app.authService
	app.router.AccountService = app.accountService
	app.router.TwoFactorService = app.twoFactorService
	app.router.PricingService = app.pricingService
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.router,
	}
}
