package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/outta-ai/outta-auth/internal/auth/http"
	"github.com/outta-ai/outta-auth/internal/auth/metrics"
	"github.com/outta-ai/outta-auth/internal/auth/provider"
	"github.com/outta-ai/outta-auth/internal/auth/provider/google"
	"github.com/outta-ai/outta-auth/internal/auth/service"
	"github.com/outta-ai/outta-auth/internal/auth/store"
	"github.com/outta-ai/outta-auth/internal/auth/store/drivers/firestore"
	"github.com/outta-ai/outta-auth/internal/auth/store/drivers/memory"
	"github.com/outta-ai/outta-auth/internal/auth/store/drivers/sqlite"
	"github.com/outta-ai/outta-auth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger
	keys   Keys

	// Core dependencies
	db      store.Store
	metrics *metrics.Metrics

	// Services
	sessionService *service.SessionService
	memberService  *service.MemberService
	providers      *provider.Registry

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
// Every configuration fault surfaces here, before the server listens.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	keys, err := LoadKeys(cfg)
	if err != nil {
		return nil, err
	}

	app := &Application{
		cfg:  cfg,
		keys: keys,
		logger: slogx.New(slogx.Config{
			Service: "outta-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	app.metrics, err = metrics.New()
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	if err := app.initDatabase(context.Background()); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"member_store", app.cfg.MemberStore,
		"providers", app.providers.Names(),
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Close the member directory
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing member store", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Handler exposes the routed handler for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// initDatabase opens the configured member directory and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return fmt.Errorf("failed to open member store: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("member store ready", "driver", app.cfg.MemberStore)
	return nil
}

// OpenStore connects to the member directory selected by cfg.MemberStore.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.MemberStore {
	case StoreMemory:
		return memory.NewStore(), nil
	case StoreSQLite:
		return sqlite.NewStore(fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.MemberDatabaseFile))
	case StoreFirestore:
		return firestore.NewStore(ctx, firestore.Config{
			ProjectID:  cfg.FirestoreProjectID,
			Database:   cfg.FirestoreDatabase,
			Collection: cfg.FirestoreCollection,
		})
	default:
		return nil, fmt.Errorf("unknown member store %q", cfg.MemberStore)
	}
}

// initServices builds the token codec, member resolution and the provider
// registry, then checks every provider's configuration.
func (app *Application) initServices() error {
	sessions, err := service.NewSessionService(app.keys.Signing, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize session tokens: %w", err)
	}
	app.sessionService = sessions

	app.memberService = &service.MemberService{
		Store:   app.db,
		Metrics: app.metrics,
	}

	deps := provider.Deps{
		Members:   app.memberService,
		Sessions:  app.sessionService,
		CookieKey: app.keys.Cookie,
		Metrics:   app.metrics,
	}

	registry, err := provider.NewRegistry(
		google.New(google.Config{
			ClientID:     app.cfg.GoogleClientID,
			ClientSecret: app.cfg.GoogleClientSecret,
			BaseURL:      app.cfg.BaseURL,
			AuthURL:      app.cfg.GoogleAuthURL,
			TokenURL:     app.cfg.GoogleTokenURL,
			UserInfoURL:  app.cfg.GoogleUserInfoURL,
			Timeout:      app.cfg.ProviderTimeout,
		}, deps),
	)
	if err != nil {
		return err
	}

	if err := registry.ConfigAll(); err != nil {
		return fmt.Errorf("invalid provider configuration: %w", err)
	}
	app.providers = registry

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.providers,
		app.sessionService,
		app.db,
		BuildVersion,
		app.logger,
	)

	router.Metrics = app.metrics
	router.SecureCookies = app.cfg.Production()
	router.AllowedOrigins = app.cfg.CORSAllowedOrigins
	router.RateLimits = app.cfg.RateLimits
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
