package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquadose/aquadose/internal/api/models"
	"github.com/aquadose/aquadose/internal/api/response"
	"github.com/aquadose/aquadose/internal/calibration"
	"github.com/aquadose/aquadose/internal/dosing"
	"github.com/aquadose/aquadose/internal/featureflags"
	"github.com/aquadose/aquadose/internal/worker"
)

// ProfileGetter looks up stored calibration profiles.
type ProfileGetter interface {
	Get(ctx context.Context, version string) (*calibration.Profile, error)
}

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service  *featureflags.Service
	profiles ProfileGetter
	notifier worker.Notifier
	logger   zerolog.Logger
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler. When profiles is
// set, active_calibration updates must name a stored or built-in profile. A
// nil notifier keeps cache invalidation local to this instance.
func NewFeatureFlagsHandler(service *featureflags.Service, profiles ProfileGetter, notifier worker.Notifier, logger zerolog.Logger) *FeatureFlagsHandler {
	if notifier == nil {
		notifier = worker.NopNotifier{}
	}
	return &FeatureFlagsHandler{service: service, profiles: profiles, notifier: notifier, logger: logger}
}

// ListFeatureFlags handles GET /v1/admin/feature-flags - list all feature flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.service.GetAllFlags(r.Context())

	list := featureflags.FlagList{Items: make([]featureflags.Flag, 0, len(flags))}
	for _, f := range flags {
		list.Items = append(list.Items, *f)
	}
	sort.Slice(list.Items, func(i, j int) bool { return list.Items[i].Key < list.Items[j].Key })

	response.JSON(w, r, http.StatusOK, list)
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags - update feature flags.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var input featureflags.FlagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if len(input.Updates) == 0 {
		response.BadRequest(w, r, "at least one update is required", []models.FieldError{
			{Field: "updates", Message: "must not be empty", Code: "REQUIRED"},
		})
		return
	}

	ctx := r.Context()
	var fieldErrors []models.FieldError
	flags := make([]*featureflags.Flag, 0, len(input.Updates))
	for _, u := range input.Updates {
		if err := u.Validate(); err != nil {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field:   "updates." + u.Key,
				Message: err.Error(),
				Code:    "INVALID_VALUE",
			})
			continue
		}
		if u.Key == featureflags.FlagActiveCalibration {
			fe, err := h.checkCalibration(ctx, u.Value.(string))
			if err != nil {
				response.ServiceUnavailable(w, r, "calibration store unavailable")
				return
			}
			if fe != nil {
				fieldErrors = append(fieldErrors, *fe)
				continue
			}
		}
		flags = append(flags, &featureflags.Flag{Key: u.Key, Value: u.Value})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "one or more flag updates are invalid", fieldErrors)
		return
	}

	if err := h.service.SetFlags(ctx, flags); err != nil {
		response.InternalError(w, r, "failed to update feature flags")
		return
	}

	h.logger.Info().
		Str("operator", GetOperator(ctx)).
		Str("reason", input.Reason).
		Int("count", len(flags)).
		Msg("feature flags updated")

	h.publish(r)
	response.NoContent(w, r)
}

// checkCalibration returns a field error when version names no profile. The
// error is set only when the store cannot be asked.
func (h *FeatureFlagsHandler) checkCalibration(ctx context.Context, version string) (*models.FieldError, error) {
	if h.profiles == nil || version == dosing.DefaultCoefficientsVersion {
		return nil, nil
	}
	_, err := h.profiles.Get(ctx, version)
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, calibration.ErrProfileNotFound):
		return &models.FieldError{
			Field:   "updates." + featureflags.FlagActiveCalibration,
			Message: "calibration profile " + version + " does not exist",
			Code:    "UNKNOWN_CALIBRATION",
		}, nil
	default:
		return nil, err
	}
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate - invalidate flag cache.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	h.publish(r)
	response.NoContent(w, r)
}

// publish asks every other instance to drop its flag cache. Failures are
// logged; the local cache is already current and remote caches expire.
func (h *FeatureFlagsHandler) publish(r *http.Request) {
	msg := worker.JobMessage{JobType: worker.JobFlagsInvalidate, IssuedAt: time.Now().UTC()}
	if err := h.notifier.Notify(r.Context(), msg); err != nil {
		h.logger.Warn().Err(err).Msg("failed to publish flag invalidation")
	}
}
