package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"aquatrend/internal/config"
	apierrors "aquatrend/internal/errors"
	"aquatrend/internal/infrastructure"
	customMiddleware "aquatrend/internal/middleware"
	"aquatrend/internal/services"
	handlers "aquatrend/internal/transport/http"
)

const (
	Version = "1.0.0"
	AppName = "AquaTrend Water Quality Service"
)

// BuildTime is set at compile time via -ldflags.
var BuildTime = ""

// Application wires configuration, services and the HTTP server.
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	DataService   *services.DataService
	HealthService *services.HealthService
	Telemetry     *infrastructure.Telemetry
	Logger        *slog.Logger
}

// NewApplication creates a new application instance with dependency
// injection.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	telemetry, err := infrastructure.InitializeTelemetry("aquatrend", Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	app := &Application{
		Config:    cfg,
		Paths:     paths,
		Telemetry: telemetry,
		Logger:    logger,
	}

	app.DataService = services.NewDataService(cfg, paths, telemetry.Metrics, logger)
	app.HealthService = services.NewHealthService(Version, BuildTime, paths, app.DataService, logger)

	app.setupRouter()
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// setupRouter assembles the middleware chain and route tree.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.Metrics(a.Telemetry.Metrics))
	r.Use(customMiddleware.Compress(5))

	if a.Config.Server.RateLimit.Enabled {
		limiter := customMiddleware.NewRateLimiter(
			a.Config.Server.RateLimit.RPS,
			a.Config.Server.RateLimit.Burst,
			a.Logger,
		)
		r.Use(limiter.Handler)
	}

	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())

		dataHandler := handlers.NewDataHandler(a.DataService, a.Logger, errorHandler)
		r.Mount("/data", dataHandler.Routes())
	})

	r.Handle("/metrics", a.Telemetry.MetricsHandler())

	a.Router = r
}

// Run starts the server and background workers and blocks until an
// interrupt arrives or a component fails.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The first load is best-effort: readiness stays false until data
	// appears, but the server still comes up.
	if err := a.DataService.Load(ctx, "startup"); err != nil {
		a.Logger.Warn("initial dataset load failed",
			slog.String("error", err.Error()))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if a.Config.Sources.WatchDataDir {
		g.Go(func() error {
			if err := a.DataService.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watcher error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown()
	})

	err := g.Wait()
	a.Logger.Info("application stopped")
	return err
}

// shutdown drains the server and flushes telemetry.
func (a *Application) shutdown() error {
	a.Logger.Info("shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := a.Telemetry.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
	}

	if err := infrastructure.CloseLogger(); err != nil {
		return fmt.Errorf("log file close error: %w", err)
	}
	return nil
}
