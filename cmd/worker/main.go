// Package main provides the entrypoint for the aquadose background worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquadose/aquadose/internal/app"
	"github.com/aquadose/aquadose/internal/config"
	"github.com/aquadose/aquadose/internal/telemetry"
	"github.com/aquadose/aquadose/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "aquadose-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting aquadose worker")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Create context for graceful shutdown
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

	stores, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to open stores")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	defer stores.Close()

	auditCfg := worker.DefaultAuditConfig()
	auditCfg.Concurrency = cfg.AuditConcurrency
	audit := worker.NewAuditJob(worker.AuditJobConfig{
		Config:   auditCfg,
		Profiles: stores.Calibration,
		Logger:   log,
	})

	dispatcher := worker.NewDispatcher(log)
	dispatcher.Handle(worker.JobCalibrationAudit, worker.AuditJobFunc(audit))
	dispatcher.Handle(worker.JobCalibrationInvalidate, worker.InvalidateJob(stores.Calibration, log))
	dispatcher.Handle(worker.JobFlagsInvalidate, worker.InvalidateJob(stores.Flags, log))
	dispatcher.Handle(worker.JobHealthCheck, worker.HealthCheckJob(stores.Calibration))

	// Pub/Sub delivers on-demand jobs; the ticker below covers scheduled audits.
	if cfg.PubSub.Enabled() {
		sub, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSub.ProjectID,
			SubscriptionName: cfg.PubSub.Subscription,
			Dispatcher:       dispatcher,
			Logger:           log,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to create pubsub subscriber")
			os.Exit(1)
		}
		defer sub.Close()

		go func() {
			if err := sub.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub subscriber stopped")
			}
		}()
	} else {
		log.Info().Msg("pubsub not configured, running scheduled audits only")
	}

	// Worker also exposes health endpoint for Cloud Run
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]interface{}{"status": "healthy", "version": Version}
		if _, err := dispatcher.Dispatch(r.Context(), []byte(`{"job_type":"`+worker.JobHealthCheck+`"}`)); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["error"] = err.Error()
		}
		writeJSON(w, status, body)
	})
	mux.HandleFunc("/metrics/audit", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, audit.MetricsSnapshot())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	go runScheduledAudits(ctx, audit, cfg.AuditInterval, log)

	<-ctx.Done()
	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// runScheduledAudits runs the calibration audit once at start and then every
// interval until ctx is done.
func runScheduledAudits(ctx context.Context, audit *worker.AuditJob, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := audit.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("calibration audit failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
