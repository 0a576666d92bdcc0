package dosing

import (
	"errors"
	"time"
)

// Calculate runs one full calculation: normalize, validate, convert the volume,
// evaluate every dose formula, attach split advice and classify the test-kit
// readings. Either every formula runs or none does.
func (c *Calculator) Calculate(req Request) *Result {
	req = Normalize(req)
	result := &Result{
		CalibrationVersion: c.coef.Version,
		Locale:             req.Locale,
		CalculatedAt:       time.Now().UTC(),
	}

	if err := c.Validate(req); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			result.FieldErrors = verr.Fields()
			result.Errors = verr.Messages()
		} else {
			result.Errors = []string{err.Error()}
		}
		return result
	}

	litres := ToLitres(req.Volume, req.Unit, c.coef)
	result.Litres = litres

	result.KHCO3Dose = c.KHCO3Grams(req.KHCurrent, req.KHTarget, litres, req.KHPurity)

	if deltaGH := req.GHTarget - req.GHCurrent; deltaGH > 0 {
		result.EquilibriumDose = c.EquilibriumGrams(deltaGH, litres)
		result.EquilibriumRequired = true
	}

	result.NeutralRegulatorDose = c.NeutralRegulatorGrams(litres, req.PHCurrent, req.PHTarget, req.NRKH)
	result.AcidBufferDose = c.AcidBufferGrams(litres, req.AcidCurrentKH, req.AcidTargetKH)

	gold := c.GoldBufferGrams(litres, req.PHGoldCurrent, req.PHGoldTarget)
	result.GoldBufferDose = gold.Grams
	result.GoldBufferFullDose = gold.FullDose

	for _, p := range Products() {
		if !result.Required(p) || result.Dose(p) <= 0 {
			continue
		}
		advice := c.SplitAdvice(result.Dose(p), req.Locale)
		switch p {
		case ProductKHCO3:
			result.SplitAdvice.KHCO3 = advice
		case ProductEquilibrium:
			result.SplitAdvice.Equilibrium = advice
		case ProductNeutralRegulator:
			result.SplitAdvice.NeutralRegulator = advice
		case ProductAcidBuffer:
			result.SplitAdvice.AcidBuffer = advice
		case ProductGoldBuffer:
			result.SplitAdvice.GoldBuffer = advice
		}
	}

	classification := c.Classify(req.Readings, litres, req.Locale)
	result.Parameters = &classification
	result.Recommendations = classification.Recommendations

	return result
}
