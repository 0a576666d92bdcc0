// Package api provides the HTTP API for aquadose.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/aquadose/aquadose/internal/api/handler"
	"github.com/aquadose/aquadose/internal/api/middleware"
	"github.com/aquadose/aquadose/internal/auth"
	"github.com/aquadose/aquadose/internal/calibration"
	"github.com/aquadose/aquadose/internal/dosing"
	"github.com/aquadose/aquadose/internal/featureflags"
	"github.com/aquadose/aquadose/internal/resilience"
	"github.com/aquadose/aquadose/internal/worker"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// RequireTLS rejects plain-HTTP requests that did not come through a
	// TLS-terminating proxy.
	RequireTLS bool

	// RateLimitPerMinute bounds calculation requests per client IP.
	// Zero uses middleware.StandardRateLimit.
	RateLimitPerMinute int

	// JWTService validates operator tokens. Admin and status endpoints are
	// not mounted when it is nil or has no signing key.
	JWTService *auth.JWTService

	DosingService      *dosing.Service
	CalibrationService *calibration.Service
	FeatureFlagService *featureflags.Service

	// Notifier fans cache invalidations out to other instances.
	Notifier worker.Notifier

	Registry *resilience.Registry
	DB       handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "aquadose-api"
	}
	if cfg.DosingService == nil {
		cfg.DosingService = dosing.NewService(dosing.ServiceConfig{Logger: cfg.Logger})
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:     cfg.Version,
		BuildTime:   cfg.BuildTime,
		Dosing:      cfg.DosingService,
		Calibration: cfg.CalibrationService,
		Flags:       cfg.FeatureFlagService,
		Registry:    cfg.Registry,
		DB:          cfg.DB,
	})
	dosingHandler := handler.NewDosingHandler(cfg.DosingService, cfg.FeatureFlagService)
	metadataHandler := handler.NewMetadataHandler()

	// Create rate limit middleware for different endpoint categories
	calcLimit := middleware.StandardRateLimit
	if cfg.RateLimitPerMinute > 0 {
		calcLimit = middleware.PerMinute(cfg.RateLimitPerMinute)
	}
	calcRateLimit := middleware.RateLimitByIP(calcLimit)
	exportRateLimit := middleware.RateLimitByIP(middleware.ExportRateLimit)     // 20 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	adminEnabled := cfg.JWTService.Enabled()

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			if adminEnabled {
				r.With(middleware.Auth(cfg.JWTService)).Get("/status", opsHandler.SystemStatus)
			}
		})

		// Metadata endpoints (public) - standard rate limiting
		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/enums", metadataHandler.GetEnums)
		})

		// Dosing endpoints (public)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireJSON(false))
			r.With(calcRateLimit).Post("/dosing:calculate", dosingHandler.Calculate)
			r.With(exportRateLimit).Post("/dosing:export", dosingHandler.Export)
		})
		r.With(standardRateLimit).Get("/dosing/defaults", dosingHandler.Defaults)

		if !adminEnabled {
			cfg.Logger.Warn().Msg("no JWT signing key configured, admin endpoints disabled")
			return
		}

		// Admin endpoints (authenticated) - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))
			r.Use(middleware.RateLimitByOperator(middleware.AdminRateLimit)) // 30 req/min per operator

			if cfg.FeatureFlagService != nil {
				var profiles handler.ProfileGetter
				if cfg.CalibrationService != nil {
					profiles = cfg.CalibrationService
				}
				featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, profiles, cfg.Notifier, cfg.Logger)
				r.Route("/feature-flags", func(r chi.Router) {
					r.Get("/", featureFlagsHandler.ListFeatureFlags)
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireRole(auth.RoleAdmin))
						r.Use(middleware.RequireJSON(false))
						r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
						r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
					})
				})
			}

			if cfg.CalibrationService != nil {
				calibrationHandler := handler.NewCalibrationHandler(cfg.CalibrationService, cfg.Notifier, cfg.Logger)
				r.Get("/calibrations", calibrationHandler.ListProfiles)
				r.Get("/calibrations/{version}", calibrationHandler.GetProfile)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(auth.RoleAdmin))
					r.With(middleware.RequireJSON(true)).Post("/calibrations:import", calibrationHandler.ImportProfiles)
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireJSON(false))
						r.Post("/calibrations/invalidate", calibrationHandler.InvalidateCache)
						r.Put("/calibrations/{version}", calibrationHandler.PutProfile)
						r.Delete("/calibrations/{version}", calibrationHandler.DeleteProfile)
					})
				})
			}
		})
	})

	return r
}
