package dosing

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aquadose/aquadose/internal/telemetry"
)

// CoefficientsSource supplies the calibration profile to calculate with.
type CoefficientsSource interface {
	Active(ctx context.Context) (Coefficients, error)
}

// LocaleSource supplies the locale used when a request does not name one.
type LocaleSource interface {
	DefaultLocale(ctx context.Context) string
}

// ServiceConfig holds configuration for the dosing service.
type ServiceConfig struct {
	// Coefficients supplies the active calibration. Nil uses DefaultCoefficients.
	Coefficients CoefficientsSource

	// Locales supplies the default locale. Nil uses DefaultLocale.
	Locales LocaleSource

	Logger  zerolog.Logger
	Metrics *Metrics
}

// Service runs dosing calculations against the active calibration profile.
type Service struct {
	coefficients CoefficientsSource
	locales      LocaleSource
	logger       zerolog.Logger
	metrics      *Metrics
}

// NewService creates a new dosing service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		coefficients: cfg.Coefficients,
		locales:      cfg.Locales,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// Calculator returns a Calculator bound to the active calibration profile.
// If the profile cannot be loaded the built-in defaults are used.
func (s *Service) Calculator(ctx context.Context) *Calculator {
	if s.coefficients == nil {
		return NewCalculator(DefaultCoefficients())
	}
	c, err := s.coefficients.Active(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load active calibration, using defaults")
		return NewCalculator(DefaultCoefficients())
	}
	return NewCalculator(c)
}

// Locale resolves a requested locale (tag or Accept-Language value) against
// the configured default.
func (s *Service) Locale(ctx context.Context, requested string) Locale {
	fallback := DefaultLocale
	if s.locales != nil {
		fallback = ParseLocale(s.locales.DefaultLocale(ctx), DefaultLocale)
	}
	return ParseLocale(requested, fallback)
}

// Calculate runs one calculation. It never returns an error: invalid input
// yields a Result with Errors set and every dose zeroed.
func (s *Service) Calculate(ctx context.Context, req Request) *Result {
	ctx, span := telemetry.Tracer(instrumentationName).Start(ctx, "dosing.Calculate")
	defer span.End()

	calc := s.Calculator(ctx)
	result := calc.Calculate(req)

	span.SetAttributes(
		attribute.String("dosing.calibration_version", result.CalibrationVersion),
		attribute.String("dosing.unit", string(req.Unit)),
		attribute.Float64("dosing.litres", result.Litres),
		attribute.Bool("dosing.valid", result.Valid()),
	)
	s.metrics.Record(ctx, result)

	if !result.Valid() {
		span.SetStatus(codes.Error, "validation failed")
		s.logger.Debug().
			Strs("errors", result.Errors).
			Str("calibration_version", result.CalibrationVersion).
			Msg("dosing request rejected")
		return result
	}

	s.logger.Debug().
		Float64("litres", result.Litres).
		Float64("khco3_g", result.KHCO3Dose).
		Float64("equilibrium_g", result.EquilibriumDose).
		Float64("neutral_regulator_g", result.NeutralRegulatorDose).
		Float64("acid_buffer_g", result.AcidBufferDose).
		Float64("gold_buffer_g", result.GoldBufferDose).
		Str("calibration_version", result.CalibrationVersion).
		Msg("dosing calculated")

	return result
}
