package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aquadose/aquadose/internal/api/models"
	"github.com/aquadose/aquadose/internal/api/response"
	"github.com/aquadose/aquadose/internal/calibration"
	"github.com/aquadose/aquadose/internal/worker"
)

// CalibrationHandler handles calibration profile administration.
type CalibrationHandler struct {
	service  *calibration.Service
	notifier worker.Notifier
	logger   zerolog.Logger
}

// NewCalibrationHandler creates a new CalibrationHandler. A nil notifier
// keeps cache invalidation local to this instance.
func NewCalibrationHandler(service *calibration.Service, notifier worker.Notifier, logger zerolog.Logger) *CalibrationHandler {
	if notifier == nil {
		notifier = worker.NopNotifier{}
	}
	return &CalibrationHandler{service: service, notifier: notifier, logger: logger}
}

// ListProfiles handles GET /v1/admin/calibrations.
func (h *CalibrationHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profiles, err := h.service.List(ctx)
	if err != nil {
		response.ServiceUnavailable(w, r, "calibration store is unavailable")
		return
	}
	response.JSON(w, r, http.StatusOK, models.CalibrationProfileList{
		ActiveVersion: h.service.ActiveVersion(ctx),
		Items:         profiles,
	})
}

// GetProfile handles GET /v1/admin/calibrations/{version}.
func (h *CalibrationHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	version := chi.URLParam(r, "version")

	p, err := h.service.Get(r.Context(), version)
	if errors.Is(err, calibration.ErrProfileNotFound) && version == calibration.DefaultProfile().Version {
		p, err = calibration.DefaultProfile(), nil
	}
	switch {
	case errors.Is(err, calibration.ErrProfileNotFound):
		response.NotFound(w, r, "calibration profile "+version+" not found")
	case err != nil:
		response.ServiceUnavailable(w, r, "calibration store is unavailable")
	default:
		response.JSON(w, r, http.StatusOK, p)
	}
}

// PutProfile handles PUT /v1/admin/calibrations/{version} - create or
// replace a profile. Coefficients left out of the body take their defaults.
func (h *CalibrationHandler) PutProfile(w http.ResponseWriter, r *http.Request) {
	version := chi.URLParam(r, "version")

	var p calibration.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if p.Version == "" {
		p.Version = version
	}
	if p.Version != version {
		response.BadRequest(w, r, "body version does not match path", []models.FieldError{
			{Field: "version", Message: "must equal " + version, Code: "MISMATCH"},
		})
		return
	}
	p.Coefficients = p.Coefficients.WithDefaults()
	if err := p.Validate(); err != nil {
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "coefficients", Message: err.Error(), Code: "INVALID_COEFFICIENTS"},
		})
		return
	}

	ctx := r.Context()
	if err := h.service.Save(ctx, &p); err != nil {
		h.logger.Error().Err(err).Str("version", version).Msg("failed to save calibration profile")
		response.ServiceUnavailable(w, r, "calibration store is unavailable")
		return
	}

	h.logger.Info().
		Str("operator", GetOperator(ctx)).
		Str("version", version).
		Msg("calibration profile saved")
	h.publish(r, version)
	response.JSON(w, r, http.StatusOK, &p)
}

// DeleteProfile handles DELETE /v1/admin/calibrations/{version}.
func (h *CalibrationHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	version := chi.URLParam(r, "version")

	if version == h.service.ActiveVersion(ctx) {
		response.Conflict(w, r, "calibration profile "+version+" is active")
		return
	}

	err := h.service.Delete(ctx, version)
	switch {
	case errors.Is(err, calibration.ErrBuiltinProfile):
		response.Conflict(w, r, err.Error())
		return
	case errors.Is(err, calibration.ErrProfileNotFound):
		response.NotFound(w, r, "calibration profile "+version+" not found")
		return
	case err != nil:
		response.ServiceUnavailable(w, r, "calibration store is unavailable")
		return
	}

	h.logger.Info().
		Str("operator", GetOperator(ctx)).
		Str("version", version).
		Msg("calibration profile deleted")
	h.publish(r, version)
	response.NoContent(w, r)
}

// ImportProfiles handles POST /v1/admin/calibrations:import - a YAML
// document with a top-level profiles list.
func (h *CalibrationHandler) ImportProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := calibration.Decode(r.Body)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	if len(profiles) == 0 {
		response.BadRequest(w, r, "no profiles to import", nil)
		return
	}

	ctx := r.Context()
	if err := h.service.Import(ctx, profiles); err != nil {
		h.logger.Error().Err(err).Msg("failed to import calibration profiles")
		response.ServiceUnavailable(w, r, "calibration store is unavailable")
		return
	}

	result := models.CalibrationImportResult{Imported: make([]string, 0, len(profiles))}
	for _, p := range profiles {
		result.Imported = append(result.Imported, p.Version)
	}

	h.logger.Info().
		Str("operator", GetOperator(ctx)).
		Strs("versions", result.Imported).
		Msg("calibration profiles imported")
	h.publish(r, "")
	response.JSON(w, r, http.StatusOK, result)
}

// InvalidateCache handles POST /v1/admin/calibrations/invalidate.
func (h *CalibrationHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	h.publish(r, "")
	response.NoContent(w, r)
}

func (h *CalibrationHandler) publish(r *http.Request, version string) {
	msg := worker.JobMessage{
		JobType:  worker.JobCalibrationInvalidate,
		Version:  version,
		IssuedAt: time.Now().UTC(),
	}
	if err := h.notifier.Notify(r.Context(), msg); err != nil {
		h.logger.Warn().Err(err).Str("version", version).Msg("failed to publish calibration invalidation")
	}
}
