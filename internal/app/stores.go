// Package app wires the storage-backed services shared by the API and worker
// processes.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/aquadose/aquadose/internal/calibration"
	"github.com/aquadose/aquadose/internal/config"
	"github.com/aquadose/aquadose/internal/database"
	"github.com/aquadose/aquadose/internal/dosing"
	"github.com/aquadose/aquadose/internal/featureflags"
	"github.com/aquadose/aquadose/internal/resilience"
)

// calibrationDependency names the calibration store in the health registry.
const calibrationDependency = "calibration-store"

// Stores holds the services backed by the configured store.
type Stores struct {
	Flags       *featureflags.Service
	Calibration *calibration.Service
	Dosing      *dosing.Service
	Registry    *resilience.Registry

	// Pool is nil for the memory store.
	Pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (s *Stores) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// Open builds the feature flag, calibration and dosing services for cfg.
// With the postgres store the schema is migrated and the calibration store is
// guarded by retries and a circuit breaker. CALIBRATION_FILE profiles are
// imported on every start.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Stores, error) {
	s := &Stores{Registry: resilience.NewRegistry()}

	var (
		flagRepo featureflags.Repository = featureflags.NewInMemoryRepository()
		calRepo  calibration.Repository  = calibration.NewInMemoryRepository()
	)

	if cfg.CalibrationStore == config.StorePostgres {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")

		s.Pool = pool
		flagRepo = featureflags.NewPostgresRepository(pool)

		resilienceMetrics, err := resilience.NewMetrics()
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize dependency metrics")
		}
		rcfg := resilience.DefaultConfig(calibrationDependency)
		rcfg.Registry = s.Registry
		rcfg.Metrics = resilienceMetrics
		calRepo = calibration.NewResilientRepository(calibration.NewPostgresRepository(pool), rcfg)
	}

	defaults := featureflags.DefaultFlags()
	defaults[featureflags.FlagDefaultLocale].Value = cfg.DefaultLocale

	s.Flags = featureflags.NewService(featureflags.ServiceConfig{
		Repository:   flagRepo,
		Logger:       log,
		CacheTTL:     cfg.FlagCacheTTL,
		DefaultFlags: defaults,
	})
	s.Calibration = calibration.NewService(calibration.ServiceConfig{
		Repository: calRepo,
		Versions:   s.Flags,
		Logger:     log,
		CacheTTL:   cfg.CalibrationCacheTTL,
	})

	if cfg.CalibrationFile != "" {
		profiles, err := calibration.LoadFile(cfg.CalibrationFile)
		if err != nil {
			s.Close()
			return nil, err
		}
		if err := s.Calibration.Import(ctx, profiles); err != nil {
			s.Close()
			return nil, err
		}
		log.Info().
			Str("file", cfg.CalibrationFile).
			Int("profiles", len(profiles)).
			Msg("calibration profiles imported")
	}

	dosingMetrics, err := dosing.NewMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize dosing metrics")
	}
	s.Dosing = dosing.NewService(dosing.ServiceConfig{
		Coefficients: s.Calibration,
		Locales:      s.Flags,
		Logger:       log,
		Metrics:      dosingMetrics,
	})

	return s, nil
}
