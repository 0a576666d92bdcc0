package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aquadose/aquadose/internal/api/models"
	"github.com/aquadose/aquadose/internal/api/response"
	"github.com/aquadose/aquadose/internal/dosing"
	"github.com/aquadose/aquadose/internal/featureflags"
)

// DosingHandler handles dosing calculation endpoints.
type DosingHandler struct {
	service *dosing.Service
	flags   *featureflags.Service
}

// NewDosingHandler creates a new DosingHandler. flags may be nil, in which
// case CSV export is always available.
func NewDosingHandler(service *dosing.Service, flags *featureflags.Service) *DosingHandler {
	return &DosingHandler{service: service, flags: flags}
}

// Calculate handles POST /v1/dosing:calculate.
func (h *DosingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	result, ok := h.calculate(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Language", string(result.Locale))
	resp := models.NewCalculateResponse(result)
	if !result.Valid() {
		response.DosingRejected(w, r, models.NewFieldErrors(result.FieldErrors), resp)
		return
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// Export handles POST /v1/dosing:export - the calculation as a CSV download.
func (h *DosingHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.flags != nil && h.flags.IsCSVExportDisabled(r.Context()) {
		response.ServiceUnavailable(w, r, "CSV export is currently disabled")
		return
	}

	result, ok := h.calculate(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Language", string(result.Locale))
	if !result.Valid() {
		response.DosingRejected(w, r, models.NewFieldErrors(result.FieldErrors), models.NewCalculateResponse(result))
		return
	}

	var buf bytes.Buffer
	if err := dosing.WriteCSV(&buf, result, result.Locale); err != nil {
		response.InternalError(w, r, "failed to render CSV export")
		return
	}
	response.CSV(w, r, dosing.ExportFilename, buf.Bytes())
}

// Defaults handles GET /v1/dosing/defaults - the inputs a new form starts with.
func (h *DosingHandler) Defaults(w http.ResponseWriter, r *http.Request) {
	req := dosing.DefaultRequest()
	req.Locale = h.resolveLocale(r, "")
	response.JSON(w, r, http.StatusOK, models.NewCalculateRequest(req))
}

// calculate decodes the body and runs the calculation. It writes the error
// response itself and returns false when the body cannot be used.
func (h *DosingHandler) calculate(w http.ResponseWriter, r *http.Request) (*dosing.Result, bool) {
	var body models.CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return nil, false
	}

	req, fieldErrors := body.ToDosing()
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "request body contains invalid values", fieldErrors)
		return nil, false
	}
	req.Locale = h.resolveLocale(r, body.Locale)

	return h.service.Calculate(r.Context(), req), true
}

// resolveLocale picks the first supported locale from the body, the lang
// query parameter and the Accept-Language header, then the configured default.
func (h *DosingHandler) resolveLocale(r *http.Request, requested string) dosing.Locale {
	candidates := []string{requested, r.URL.Query().Get("lang"), r.Header.Get("Accept-Language")}
	for _, c := range candidates {
		if loc, ok := dosing.LookupLocale(c); ok {
			return loc
		}
	}
	return h.service.Locale(r.Context(), "")
}
