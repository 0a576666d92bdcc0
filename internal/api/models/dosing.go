package models

import (
	"github.com/aquadose/aquadose/internal/dosing"
)

// Field error codes raised while mapping a request body.
const (
	CodeInvalidUnit = "INVALID_UNIT"
)

// Readings are optional test-kit readings in ppm.
type Readings struct {
	Ammonia *float64 `json:"ammonia,omitempty"`
	Nitrite *float64 `json:"nitrite,omitempty"`
	Nitrate *float64 `json:"nitrate,omitempty"`
	GH      *float64 `json:"gh,omitempty"`
	KH      *float64 `json:"kh,omitempty"`
}

// CalculateRequest is the body of POST /v1/dosing:calculate and
// /v1/dosing:export. Omitted fields take the calculator defaults served by
// GET /v1/dosing/defaults.
type CalculateRequest struct {
	Volume *float64 `json:"volume,omitempty"`
	Unit   *string  `json:"unit,omitempty"`

	KHCurrent *float64 `json:"khCurrent,omitempty"`
	KHTarget  *float64 `json:"khTarget,omitempty"`
	KHPurity  *float64 `json:"khPurity,omitempty"`

	GHCurrent *float64 `json:"ghCurrent,omitempty"`
	GHTarget  *float64 `json:"ghTarget,omitempty"`

	PHCurrent *float64 `json:"phCurrent,omitempty"`
	PHTarget  *float64 `json:"phTarget,omitempty"`
	NRKH      *float64 `json:"nrKh,omitempty"`

	AcidCurrentKH *float64 `json:"acidCurrentKh,omitempty"`
	AcidTargetKH  *float64 `json:"acidTargetKh,omitempty"`

	PHGoldCurrent *float64 `json:"phGoldCurrent,omitempty"`
	PHGoldTarget  *float64 `json:"phGoldTarget,omitempty"`

	Readings *Readings `json:"readings,omitempty"`

	// Locale selects the language of advice text, e.g. "en" or "nl".
	Locale string `json:"locale,omitempty"`
}

// NewCalculateRequest renders a dosing request as a request body.
func NewCalculateRequest(r dosing.Request) CalculateRequest {
	unit := string(r.Unit)
	return CalculateRequest{
		Volume:        &r.Volume,
		Unit:          &unit,
		KHCurrent:     &r.KHCurrent,
		KHTarget:      &r.KHTarget,
		KHPurity:      &r.KHPurity,
		GHCurrent:     &r.GHCurrent,
		GHTarget:      &r.GHTarget,
		PHCurrent:     &r.PHCurrent,
		PHTarget:      &r.PHTarget,
		NRKH:          &r.NRKH,
		AcidCurrentKH: &r.AcidCurrentKH,
		AcidTargetKH:  &r.AcidTargetKH,
		PHGoldCurrent: &r.PHGoldCurrent,
		PHGoldTarget:  &r.PHGoldTarget,
		Locale:        string(r.Locale),
	}
}

// ToDosing maps the body onto the calculator defaults. It returns field
// errors for values that cannot be represented, such as an unknown unit.
// The locale is left for the caller to resolve.
func (r *CalculateRequest) ToDosing() (dosing.Request, []FieldError) {
	out := dosing.DefaultRequest()
	out.Locale = ""

	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&out.Volume, r.Volume)
	set(&out.KHCurrent, r.KHCurrent)
	set(&out.KHTarget, r.KHTarget)
	set(&out.KHPurity, r.KHPurity)
	set(&out.GHCurrent, r.GHCurrent)
	set(&out.GHTarget, r.GHTarget)
	set(&out.PHCurrent, r.PHCurrent)
	set(&out.PHTarget, r.PHTarget)
	set(&out.NRKH, r.NRKH)
	set(&out.AcidCurrentKH, r.AcidCurrentKH)
	set(&out.AcidTargetKH, r.AcidTargetKH)
	set(&out.PHGoldCurrent, r.PHGoldCurrent)
	set(&out.PHGoldTarget, r.PHGoldTarget)

	var errs []FieldError
	if r.Unit != nil {
		unit, ok := dosing.ParseUnit(*r.Unit)
		if !ok {
			errs = append(errs, FieldError{
				Field:   "unit",
				Message: "unit must be one of L, US, UK",
				Code:    CodeInvalidUnit,
			})
		}
		out.Unit = unit
	}

	if r.Readings != nil {
		out.Readings = dosing.TestKitReadings{
			Ammonia: r.Readings.Ammonia,
			Nitrite: r.Readings.Nitrite,
			Nitrate: r.Readings.Nitrate,
			GH:      r.Readings.GH,
			KH:      r.Readings.KH,
		}
	}

	return out, errs
}

// Doses are the gram doses per product.
type Doses struct {
	KHCO3            float64 `json:"khco3"`
	Equilibrium      float64 `json:"equilibrium"`
	NeutralRegulator float64 `json:"neutralRegulator"`
	AcidBuffer       float64 `json:"acidBuffer"`
	GoldBuffer       float64 `json:"goldBuffer"`
}

// SplitAdvice is the administration advice per product. Empty when no
// advice applies.
type SplitAdvice struct {
	KHCO3            string `json:"khco3,omitempty"`
	Equilibrium      string `json:"equilibrium,omitempty"`
	NeutralRegulator string `json:"neutralRegulator,omitempty"`
	AcidBuffer       string `json:"acidBuffer,omitempty"`
	GoldBuffer       string `json:"goldBuffer,omitempty"`
}

// ParameterStatus is the classification of one test-kit parameter.
type ParameterStatus struct {
	Status      string   `json:"status"`
	DegreeValue *float64 `json:"degreeValue,omitempty"`
}

// Parameters is the classification of the test-kit readings.
type Parameters struct {
	Ammonia ParameterStatus `json:"ammonia"`
	Nitrite ParameterStatus `json:"nitrite"`
	Nitrate ParameterStatus `json:"nitrate"`
	GH      ParameterStatus `json:"gh"`
	KH      ParameterStatus `json:"kh"`

	// EmergencyDoses are in mL, keyed by product.
	EmergencyDoses map[string]float64 `json:"emergencyDoses,omitempty"`
}

// CalculateResponse is the outcome of a dosing calculation.
type CalculateResponse struct {
	Litres              float64           `json:"litres"`
	Doses               Doses             `json:"doses"`
	GoldBufferFullDose  bool              `json:"goldBufferFullDose"`
	EquilibriumRequired bool              `json:"equilibriumRequired"`
	SplitAdvice         SplitAdvice       `json:"splitAdvice"`
	Labels              map[string]string `json:"labels,omitempty"`
	Parameters          *Parameters       `json:"parameters,omitempty"`
	Recommendations     []string          `json:"recommendations"`
	Errors              []string          `json:"errors"`
	CalibrationVersion  string            `json:"calibrationVersion"`
	Locale              string            `json:"locale"`
	CalculatedAt        Timestamp         `json:"calculatedAt"`
}

// NewCalculateResponse converts a dosing result.
func NewCalculateResponse(r *dosing.Result) *CalculateResponse {
	resp := &CalculateResponse{
		Litres: r.Litres,
		Doses: Doses{
			KHCO3:            r.KHCO3Dose,
			Equilibrium:      r.EquilibriumDose,
			NeutralRegulator: r.NeutralRegulatorDose,
			AcidBuffer:       r.AcidBufferDose,
			GoldBuffer:       r.GoldBufferDose,
		},
		GoldBufferFullDose:  r.GoldBufferFullDose,
		EquilibriumRequired: r.EquilibriumRequired,
		SplitAdvice: SplitAdvice{
			KHCO3:            r.SplitAdvice.KHCO3,
			Equilibrium:      r.SplitAdvice.Equilibrium,
			NeutralRegulator: r.SplitAdvice.NeutralRegulator,
			AcidBuffer:       r.SplitAdvice.AcidBuffer,
			GoldBuffer:       r.SplitAdvice.GoldBuffer,
		},
		Recommendations:    nonNil(r.Recommendations),
		Errors:             nonNil(r.Errors),
		CalibrationVersion: r.CalibrationVersion,
		Locale:             string(r.Locale),
		CalculatedAt:       Timestamp(r.CalculatedAt),
	}

	if r.Valid() {
		resp.Labels = make(map[string]string, len(dosing.Products()))
		for _, p := range dosing.Products() {
			resp.Labels[string(p)] = dosing.Label(r, p, r.Locale)
		}
	}

	if c := r.Parameters; c != nil {
		resp.Parameters = &Parameters{
			Ammonia: newParameterStatus(c.Ammonia),
			Nitrite: newParameterStatus(c.Nitrite),
			Nitrate: newParameterStatus(c.Nitrate),
			GH:      newParameterStatus(c.GH),
			KH:      newParameterStatus(c.KH),
		}
		if len(c.EmergencyDoses) > 0 {
			resp.Parameters.EmergencyDoses = make(map[string]float64, len(c.EmergencyDoses))
			for p, ml := range c.EmergencyDoses {
				resp.Parameters.EmergencyDoses[string(p)] = ml
			}
		}
	}

	return resp
}

// NewFieldErrors converts dosing validation failures.
func NewFieldErrors(errs []dosing.FieldError) []FieldError {
	out := make([]FieldError, len(errs))
	for i, e := range errs {
		out[i] = FieldError{Field: e.Field, Message: e.Message, Code: e.Code}
	}
	return out
}

func newParameterStatus(s dosing.ParameterStatus) ParameterStatus {
	return ParameterStatus{Status: string(s.Status), DegreeValue: s.DegreeValue}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
