package dosing

import (
	"math"

	"github.com/shopspring/decimal"
)

// selfCheckTolerance is the allowed difference in grams.
const selfCheckTolerance = 0.02

// selfCheckLitres is roughly 10 US gallons.
const selfCheckLitres = 37.854

// CheckResult is the outcome of one self-check scenario.
type CheckResult struct {
	Name     string  `json:"name"`
	Product  Product `json:"product"`
	Expected float64 `json:"expected"`
	Actual   float64 `json:"actual"`
	Pass     bool    `json:"pass"`
}

// SelfCheckReport summarizes a self-check run.
type SelfCheckReport struct {
	CalibrationVersion string        `json:"calibrationVersion"`
	Checks             []CheckResult `json:"checks"`
}

// Passed reports whether every scenario passed.
func (r SelfCheckReport) Passed() bool {
	for _, c := range r.Checks {
		if !c.Pass {
			return false
		}
	}
	return true
}

// Failed returns the scenarios that did not pass.
func (r SelfCheckReport) Failed() []CheckResult {
	var failed []CheckResult
	for _, c := range r.Checks {
		if !c.Pass {
			failed = append(failed, c)
		}
	}
	return failed
}

// SelfCheck runs the reference scenarios against the calculator. The expected
// values are those of the default calibration, so a profile that drifts from
// it shows up as failed checks.
func SelfCheck(calc *Calculator) SelfCheckReport {
	gold := calc.GoldBufferGrams(40, 7.0, 7.5)
	goldHalf := calc.GoldBufferGrams(40, 7.0, 7.1)

	checks := []struct {
		name     string
		product  Product
		expected float64
		actual   float64
		extra    bool
	}{
		{"KHCO₃", ProductKHCO3, 2.0544, calc.KHCO3Grams(2.2, 4, selfCheckLitres, 0.99), true},
		{"Equilibrium", ProductEquilibrium, 9.5897, calc.EquilibriumGrams(3.8, selfCheckLitres), true},
		{"Neutral Regulator", ProductNeutralRegulator, 4.7318, calc.NeutralRegulatorGrams(selfCheckLitres, 7.5, 7.0, 4), true},
		{"Acid Buffer", ProductAcidBuffer, 1.1813, calc.AcidBufferGrams(selfCheckLitres, 4, 1.67), true},
		{"Gold Buffer (full)", ProductGoldBuffer, 6.00, gold.Grams, gold.FullDose},
		{"Gold Buffer (half)", ProductGoldBuffer, 3.00, goldHalf.Grams, !goldHalf.FullDose},
	}

	report := SelfCheckReport{CalibrationVersion: calc.Coefficients().Version}
	for _, c := range checks {
		report.Checks = append(report.Checks, CheckResult{
			Name:     c.name,
			Product:  c.product,
			Expected: c.expected,
			Actual:   decimal.NewFromFloat(c.actual).Round(4).InexactFloat64(),
			Pass:     c.extra && math.Abs(c.actual-c.expected) <= selfCheckTolerance,
		})
	}
	return report
}
