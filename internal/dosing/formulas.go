package dosing

import "math"

// Product identifies a dosing product.
type Product string

const (
	ProductKHCO3            Product = "khco3"
	ProductEquilibrium      Product = "equilibrium"
	ProductNeutralRegulator Product = "neutralRegulator"
	ProductAcidBuffer       Product = "acidBuffer"
	ProductGoldBuffer       Product = "goldBuffer"
	ProductDetoxifier       Product = "detoxifier"
	ProductBioBooster       Product = "bioBooster"
)

// Products lists the gram-dosed products in result order.
func Products() []Product {
	return []Product{
		ProductKHCO3,
		ProductEquilibrium,
		ProductNeutralRegulator,
		ProductAcidBuffer,
		ProductGoldBuffer,
	}
}

// GoldBufferDose is the pH-raising buffer dose and its strength.
type GoldBufferDose struct {
	Grams    float64
	FullDose bool
}

// Calculator evaluates the dose formulas against one calibration profile.
type Calculator struct {
	coef Coefficients
}

// NewCalculator creates a Calculator. Zero-valued coefficients fall back to
// DefaultCoefficients.
func NewCalculator(c Coefficients) *Calculator {
	return &Calculator{coef: c.WithDefaults()}
}

// Coefficients returns the profile the calculator uses.
func (c *Calculator) Coefficients() Coefficients {
	return c.coef
}

// KHCO3Grams returns grams of potassium bicarbonate needed to raise KH from
// currentKH to targetKH (dKH) in litres of water at the given purity.
func (c *Calculator) KHCO3Grams(currentKH, targetKH, litres, purity float64) float64 {
	if purity == 0 {
		return 0
	}
	grams := (targetKH - currentKH) * c.coef.KHCO3PerDegreeLitre * litres / purity
	return clamp(grams)
}

// EquilibriumGrams returns grams of GH booster for a rise of deltaGH (dGH).
func (c *Calculator) EquilibriumGrams(deltaGH, litres float64) float64 {
	return clamp(deltaGH * c.coef.EquilibriumPerDegreeLitre * litres)
}

// NeutralRegulatorGrams returns grams of pH regulator to lower pH from
// currentPH to targetPH. The per-litre rate grows with KH until the buffer
// saturates, and the total is capped at NeutralRegulatorMaxSteps full steps.
func (c *Calculator) NeutralRegulatorGrams(litres, currentPH, targetPH, currentKH float64) float64 {
	if targetPH >= currentPH {
		return 0
	}

	khFactor := math.Min(currentKH, c.coef.NeutralRegulatorKHSaturation) / c.coef.NeutralRegulatorKHSaturation
	rate := c.coef.NeutralRegulatorMinRate + (c.coef.NeutralRegulatorMaxRate-c.coef.NeutralRegulatorMinRate)*khFactor

	steps := (currentPH - targetPH) / c.coef.NeutralRegulatorPHStep
	if steps <= 0 {
		return 0
	}

	grams := rate * litres * steps
	grams = math.Min(grams, c.coef.NeutralRegulatorMaxRate*litres*c.coef.NeutralRegulatorMaxSteps)
	return clamp(grams)
}

// AcidBufferGrams returns grams of acid buffer to lower KH from currentKH to
// targetKH.
func (c *Calculator) AcidBufferGrams(litres, currentKH, targetKH float64) float64 {
	return clamp((currentKH - targetKH) * c.coef.AcidBufferPerDegreeLitre * litres)
}

// GoldBufferGrams returns the pH-raising buffer dose. A full dose is used when
// the requested rise is at least GoldBufferFullDoseDelta, otherwise half.
func (c *Calculator) GoldBufferGrams(litres, currentPH, targetPH float64) GoldBufferDose {
	delta := targetPH - currentPH
	if delta <= 0 {
		return GoldBufferDose{}
	}

	full := delta >= c.coef.GoldBufferFullDoseDelta
	multiplier := c.coef.GoldBufferHalfFactor
	if full {
		multiplier = 1
	}

	return GoldBufferDose{
		Grams:    clamp(c.coef.GoldBufferFullRate * multiplier * litres),
		FullDose: full,
	}
}

// DetoxifierML returns the emergency ammonia/nitrite detoxifier volume in mL.
func (c *Calculator) DetoxifierML(litres float64) float64 {
	return clamp(litres * c.coef.DetoxifierMLPerLitre)
}

// BioBoosterML returns the biological filtration booster volume in mL.
func (c *Calculator) BioBoosterML(litres float64) float64 {
	return clamp(litres * c.coef.BioBoosterMLPerLitre)
}

// clamp maps negative and non-finite results to 0.
func clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
