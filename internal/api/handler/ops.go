// Package handler provides HTTP handlers for the aquadose API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/aquadose/aquadose/internal/api/models"
	"github.com/aquadose/aquadose/internal/api/response"
	"github.com/aquadose/aquadose/internal/calibration"
	"github.com/aquadose/aquadose/internal/dosing"
	"github.com/aquadose/aquadose/internal/featureflags"
	"github.com/aquadose/aquadose/internal/resilience"
)

// Pinger checks that a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Degradation flags reported by the status endpoint.
const (
	DegradationCSVExportDisabled   = "csv_export_disabled"
	DegradationCalibrationFallback = "calibration_fallback"
)

// OpsConfig holds the dependencies of the ops endpoints. Every dependency
// is optional.
type OpsConfig struct {
	Version     string
	BuildTime   string
	Dosing      *dosing.Service
	Calibration *calibration.Service
	Flags       *featureflags.Service
	Registry    *resilience.Registry
	DB          Pinger
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	if cfg.Dosing == nil {
		cfg.Dosing = dosing.NewService(dosing.ServiceConfig{})
	}
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The service is
// ready when the active calibration loads and validates and the database, if
// configured, answers. Drift from the reference scenarios is reported but
// only degrades /v1/ops/status.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := models.HealthStatusOK
	details := map[string]interface{}{}

	coef, err := h.activeCoefficients(ctx)
	if err == nil {
		err = coef.Validate()
	}
	if err != nil {
		status = models.HealthStatusFail
		details["calibration"] = err.Error()
		if h.cfg.Calibration != nil {
			details["calibrationVersion"] = h.cfg.Calibration.ActiveVersion(ctx)
		}
	} else {
		details["calibrationVersion"] = coef.Version
		details["selfCheck"] = dosing.SelfCheck(dosing.NewCalculator(coef)).Passed()
	}

	if h.cfg.DB != nil {
		if err := h.cfg.DB.Ping(ctx); err != nil {
			status = models.HealthStatusFail
			details["database"] = err.Error()
		}
	}

	code := http.StatusOK
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, models.Health{
		Status:  status,
		Time:    models.Timestamp(time.Now()),
		Details: details,
	})
}

// activeCoefficients loads the active profile without the default fallback
// the calculator applies.
func (h *OpsHandler) activeCoefficients(ctx context.Context) (dosing.Coefficients, error) {
	if h.cfg.Calibration == nil {
		return h.cfg.Dosing.Calculator(ctx).Coefficients(), nil
	}
	return h.cfg.Calibration.Active(ctx)
}

// SystemStatus handles GET /v1/ops/status - subsystem and dependency status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	calc := h.cfg.Dosing.Calculator(ctx)
	report := dosing.SelfCheck(calc)

	status := models.SystemStatus{
		Status:             models.HealthStatusOK,
		Time:               models.Timestamp(time.Now()),
		CalibrationVersion: calc.Coefficients().Version,
		SelfCheck:          &report,
		Dependencies:       []models.DependencyStatus{},
	}

	calculator := models.SubsystemStatus{Name: "calculator", Status: models.HealthStatusOK}
	if !report.Passed() {
		calculator.Status = models.HealthStatusDegraded
		detail := "self-check drifted from reference values"
		calculator.Detail = &detail
	}
	status.Subsystems = append(status.Subsystems, calculator)

	if h.cfg.DB != nil {
		db := models.SubsystemStatus{Name: "database", Status: models.HealthStatusOK}
		if err := h.cfg.DB.Ping(ctx); err != nil {
			db.Status = models.HealthStatusFail
			detail := err.Error()
			db.Detail = &detail
		}
		status.Subsystems = append(status.Subsystems, db)
	}

	if h.cfg.Registry != nil {
		for _, dep := range h.cfg.Registry.GetAllHealth() {
			status.Dependencies = append(status.Dependencies, dependencyStatus(dep))
		}
	}

	if h.cfg.Flags != nil && h.cfg.Flags.IsCSVExportDisabled(ctx) {
		status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, DegradationCSVExportDisabled)
	}
	if h.cfg.Calibration != nil && h.cfg.Calibration.ActiveVersion(ctx) != status.CalibrationVersion {
		status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, DegradationCalibrationFallback)
	}

	status.Status = overallStatus(status)
	response.JSON(w, r, http.StatusOK, status)
}

func dependencyStatus(h *resilience.Health) models.DependencyStatus {
	out := models.DependencyStatus{
		Name:         h.Name,
		Status:       models.HealthStatusOK,
		CircuitState: h.CircuitState.String(),
	}
	switch {
	case h.IsUnhealthy():
		out.Status = models.HealthStatusFail
	case h.IsDegraded():
		out.Status = models.HealthStatusDegraded
	}
	if h.LastSuccessAt != nil {
		t := models.Timestamp(*h.LastSuccessAt)
		out.LastSuccessAt = &t
	}
	if h.LastFailureAt != nil {
		t := models.Timestamp(*h.LastFailureAt)
		out.LastFailureAt = &t
	}
	if h.LastError != "" {
		msg := h.LastError
		out.Message = &msg
	}
	return out
}

// overallStatus is FAIL when a subsystem fails and DEGRADED when anything
// else is not OK. Open circuits only degrade since calculations fall back to
// the built-in calibration.
func overallStatus(s models.SystemStatus) models.HealthStatus {
	result := models.HealthStatusOK
	for _, sub := range s.Subsystems {
		if sub.Status == models.HealthStatusFail {
			return models.HealthStatusFail
		}
		if sub.Status != models.HealthStatusOK {
			result = models.HealthStatusDegraded
		}
	}
	for _, dep := range s.Dependencies {
		if dep.Status != models.HealthStatusOK {
			result = models.HealthStatusDegraded
		}
	}
	if len(s.ActiveDegradationFlags) > 0 {
		result = models.HealthStatusDegraded
	}
	return result
}
