// Package main provides the entrypoint for the aquadose API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquadose/aquadose/internal/api"
	"github.com/aquadose/aquadose/internal/api/handler"
	"github.com/aquadose/aquadose/internal/api/middleware"
	"github.com/aquadose/aquadose/internal/app"
	"github.com/aquadose/aquadose/internal/auth"
	"github.com/aquadose/aquadose/internal/config"
	"github.com/aquadose/aquadose/internal/telemetry"
	"github.com/aquadose/aquadose/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "aquadose-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting aquadose API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize OpenTelemetry
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, cfg.Telemetry(serviceName, Version))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	stores, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to open stores")
		os.Exit(1)
	}
	defer stores.Close()
	log.Info().
		Str("store", cfg.CalibrationStore).
		Str("calibration", stores.Calibration.ActiveVersion(ctx)).
		Msg("dosing service initialized")

	if cfg.UsesDevSigningKey() {
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	jwtService := auth.NewJWTService(cfg.JWT())

	// Cache invalidation fan-out between instances
	var notifier worker.Notifier = worker.NopNotifier{}
	if cfg.PubSub.Enabled() {
		publisher, err := worker.NewPublisher(ctx, worker.PublisherConfig{
			ProjectID: cfg.PubSub.ProjectID,
			Topic:     cfg.PubSub.Topic,
			Logger:    log,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to create pubsub publisher")
			os.Exit(1)
		}
		defer publisher.Close()
		notifier = publisher

		if err := startInvalidationSubscriber(ctx, cfg, stores, log); err != nil {
			log.Error().Err(err).Msg("failed to start pubsub subscriber")
			os.Exit(1)
		}
	} else {
		log.Info().Msg("pubsub not configured, cache invalidation is local only")
	}

	var db handler.Pinger
	if stores.Pool != nil {
		db = stores.Pool
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		RequireTLS:         cfg.RequireTLS,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		JWTService:         jwtService,
		DosingService:      stores.Dosing,
		CalibrationService: stores.Calibration,
		FeatureFlagService: stores.Flags,
		Notifier:           notifier,
		Registry:           stores.Registry,
		DB:                 db,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

// startInvalidationSubscriber drops local caches when another instance
// publishes a change. Each API instance needs its own subscription so every
// instance sees every message; the subscription name is suffixed with the
// host name.
func startInvalidationSubscriber(ctx context.Context, cfg config.Config, stores *app.Stores, log zerolog.Logger) error {
	dispatcher := worker.NewDispatcher(log)
	dispatcher.Handle(worker.JobCalibrationInvalidate, worker.InvalidateJob(stores.Calibration, log))
	dispatcher.Handle(worker.JobFlagsInvalidate, worker.InvalidateJob(stores.Flags, log))

	subscription := cfg.PubSub.Subscription
	if host, err := os.Hostname(); err == nil && host != "" {
		subscription += "-" + host
	}

	sub, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.PubSub.ProjectID,
		SubscriptionName: subscription,
		Dispatcher:       dispatcher,
		Logger:           log,
	})
	if err != nil {
		return err
	}

	go func() {
		defer sub.Close()
		if err := sub.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("pubsub subscriber stopped")
		}
	}()
	return nil
}
