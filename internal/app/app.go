package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/kalaskoll/kalaskoll/internal/http"
	"github.com/kalaskoll/kalaskoll/internal/notify"
	"github.com/kalaskoll/kalaskoll/internal/service"
	"github.com/kalaskoll/kalaskoll/internal/store"
	"github.com/kalaskoll/kalaskoll/internal/store/drivers/sqlite"
	"github.com/kalaskoll/kalaskoll/pkg/cryptox"
	"github.com/kalaskoll/kalaskoll/pkg/jwtx"
	"github.com/kalaskoll/kalaskoll/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the store, services and HTTP server together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	rsvpService       *service.RSVPService
	partyService      *service.PartyService
	authService       *service.AuthService
	quotaService      *service.QuotaService
	invitationService *service.InvitationService
	housekeeping      *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "kalaskoll",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.DataKeyPath != "" {
		cryptox.SetDataKeyPath(cfg.DataKeyPath)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, err := app.initSigner()
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices(signer)
	app.initHTTP(signer)

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("kalaskoll starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown drains requests, stops housekeeping and closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("kalaskoll stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
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

func (app *Application) initSigner() (*jwtx.Signer, error) {
	secret := []byte(app.cfg.SessionKey)
	if len(secret) == 0 {
		if app.cfg.Env == "prod" {
			return nil, fmt.Errorf("KALAS_SESSION_KEY is required in prod")
		}
		// Dev convenience: ephemeral secret, sessions die with the process.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		secret = []byte(hex.EncodeToString(buf))
		app.logger.Warn("KALAS_SESSION_KEY not set, using ephemeral session secret")
	}

	return &jwtx.Signer{
		Secret: secret,
		Issuer: app.cfg.Issuer,
		TTL:    jwtx.DefaultSessionTTL,
	}, nil
}

func (app *Application) initServices(signer *jwtx.Signer) {
	var mailer notify.Mailer
	if app.cfg.EmailBaseURL != "" {
		mailer = notify.NewEmailClient(app.cfg.EmailBaseURL, app.cfg.EmailAPIKey, app.cfg.EmailFrom)
	} else {
		app.logger.Warn("email provider not configured, confirmation emails are logged only")
		mailer = logMailer{logger: app.logger}
	}

	var smsSender notify.SMSSender
	if app.cfg.SMSBaseURL != "" {
		smsSender = notify.NewSMSClient(app.cfg.SMSBaseURL, app.cfg.SMSUsername, app.cfg.SMSPassword, app.cfg.SMSFrom)
	} else {
		app.logger.Warn("sms gateway not configured, invitation sms are logged only")
		smsSender = logSMS{logger: app.logger}
	}

	var images notify.ImageGenerator
	if app.cfg.ImageBaseURL != "" {
		images = notify.NewImageClient(app.cfg.ImageBaseURL, app.cfg.ImageAPIKey, app.cfg.ImageModel)
	} else {
		images = logImages{logger: app.logger}
	}

	app.rsvpService = &service.RSVPService{
		Store:   app.db,
		Mailer:  mailer,
		BaseURL: app.cfg.BaseURL,
	}
	app.partyService = &service.PartyService{Store: app.db}
	app.quotaService = &service.QuotaService{Store: app.db}
	app.authService = &service.AuthService{
		Store:  app.db,
		Signer: signer,
		Issuer: app.cfg.Issuer,
	}
	app.invitationService = &service.InvitationService{
		Parties: app.partyService,
		Quota:   app.quotaService,
		SMS:     smsSender,
		Images:  images,
		BaseURL: app.cfg.BaseURL,
	}
	app.housekeeping = service.NewHousekeepingService(app.db, app.logger, app.cfg.HousekeepingInterval)
}

func (app *Application) initHTTP(signer *jwtx.Signer) {
	app.router = httpapi.NewRouter(signer, BuildVersion, app.db, app.logger)
	app.router.RSVPService = app.rsvpService
	app.router.PartyService = app.partyService
	app.router.AuthService = app.authService
	app.router.InvitationService = app.invitationService
	app.router.QuotaService = app.quotaService
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// logMailer, logSMS and logImages stand in for unconfigured providers so
// local development works without accounts.
type logMailer struct{ logger *slog.Logger }

func (m logMailer) SendConfirmation(_ context.Context, msg notify.ConfirmationEmail) error {
	m.logger.Info("confirmation email (not sent)", "to", msg.To, "edit_url", msg.EditURL)
	return nil
}

type logSMS struct{ logger *slog.Logger }

func (s logSMS) SendSMS(_ context.Context, to, message string) error {
	s.logger.Info("sms (not sent)", "to", to, "length", len([]rune(message)))
	return nil
}

type logImages struct{ logger *slog.Logger }

func (g logImages) GenerateImage(context.Context, string) (*notify.GeneratedImage, error) {
	g.logger.Info("image generation (not configured)")
	return nil, fmt.Errorf("image generation provider not configured")
}
