package dosing

import "time"

// SplitAdvice holds the administration advice per gram-dosed product.
type SplitAdvice struct {
	KHCO3            string
	Equilibrium      string
	NeutralRegulator string
	AcidBuffer       string
	GoldBuffer       string
}

// Result is the outcome of one calculation. When Errors is non-empty every
// dose is 0, every flag is false and Parameters is nil.
type Result struct {
	Litres float64

	KHCO3Dose            float64
	EquilibriumDose      float64
	NeutralRegulatorDose float64
	AcidBufferDose       float64
	GoldBufferDose       float64

	GoldBufferFullDose  bool
	EquilibriumRequired bool

	SplitAdvice SplitAdvice

	Parameters      *Classification
	Recommendations []string

	Errors      []string
	FieldErrors []FieldError

	CalibrationVersion string
	Locale             Locale
	CalculatedAt       time.Time
}

// Valid reports whether the calculation ran.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Dose returns the dose for a gram-dosed product.
func (r *Result) Dose(p Product) float64 {
	switch p {
	case ProductKHCO3:
		return r.KHCO3Dose
	case ProductEquilibrium:
		return r.EquilibriumDose
	case ProductNeutralRegulator:
		return r.NeutralRegulatorDose
	case ProductAcidBuffer:
		return r.AcidBufferDose
	case ProductGoldBuffer:
		return r.GoldBufferDose
	default:
		return 0
	}
}

// Required reports whether a product needs to be dosed at all.
func (r *Result) Required(p Product) bool {
	if p == ProductEquilibrium {
		return r.EquilibriumRequired
	}
	return r.Dose(p) > 0
}

// Advice returns the split advice for a gram-dosed product.
func (r *Result) Advice(p Product) string {
	switch p {
	case ProductKHCO3:
		return r.SplitAdvice.KHCO3
	case ProductEquilibrium:
		return r.SplitAdvice.Equilibrium
	case ProductNeutralRegulator:
		return r.SplitAdvice.NeutralRegulator
	case ProductAcidBuffer:
		return r.SplitAdvice.AcidBuffer
	case ProductGoldBuffer:
		return r.SplitAdvice.GoldBuffer
	default:
		return ""
	}
}
