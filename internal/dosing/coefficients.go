// Package dosing computes aquarium water-chemistry doses for the supported
// products and classifies test-kit readings.
//
// Everything in this package is a pure function of its inputs: there is no
// session state, so a Calculator or Service may be shared freely between
// goroutines.
package dosing

import (
	"errors"
	"fmt"
	"math"
)

// DefaultCoefficientsVersion identifies the built-in calibration profile.
const DefaultCoefficientsVersion = "2024.2-corrected"

// ErrInvalidCoefficients is returned when a calibration profile cannot be used.
var ErrInvalidCoefficients = errors.New("invalid dosing coefficients")

// Coefficients holds every physical and product constant the formulas use.
// A profile is identified by Version so corrections can be rolled out (and
// rolled back) as a single unit.
type Coefficients struct {
	// Version identifies the profile, e.g. "2024.2-corrected".
	Version string `json:"version" yaml:"version"`

	// USGallonLitres is litres per US liquid gallon.
	USGallonLitres float64 `json:"usGallonLitres" yaml:"us_gallon_litres"`

	// UKGallonLitres is litres per imperial gallon.
	UKGallonLitres float64 `json:"ukGallonLitres" yaml:"uk_gallon_litres"`

	// PPMPerDegree converts a CaCO3-equivalent ppm reading to degrees (dKH/dGH).
	PPMPerDegree float64 `json:"ppmPerDegree" yaml:"ppm_per_degree"`

	// KHCO3PerDegreeLitre is grams of potassium bicarbonate raising 1 L by 1 dKH.
	KHCO3PerDegreeLitre float64 `json:"khco3PerDegreeLitre" yaml:"khco3_per_degree_litre"`

	// EquilibriumPerDegreeLitre is grams of GH booster raising 1 L by 1 dGH.
	// Product label: 16 g raises 80 L by 3 dGH.
	EquilibriumPerDegreeLitre float64 `json:"equilibriumPerDegreeLitre" yaml:"equilibrium_per_degree_litre"`

	// NeutralRegulatorMinRate and NeutralRegulatorMaxRate bound the pH
	// regulator dose per litre for one 0.5 pH step. The rate is interpolated
	// by KH up to NeutralRegulatorKHSaturation.
	NeutralRegulatorMinRate      float64 `json:"neutralRegulatorMinRate" yaml:"neutral_regulator_min_rate"`
	NeutralRegulatorMaxRate      float64 `json:"neutralRegulatorMaxRate" yaml:"neutral_regulator_max_rate"`
	NeutralRegulatorKHSaturation float64 `json:"neutralRegulatorKhSaturation" yaml:"neutral_regulator_kh_saturation"`
	NeutralRegulatorPHStep       float64 `json:"neutralRegulatorPhStep" yaml:"neutral_regulator_ph_step"`
	NeutralRegulatorMaxSteps     float64 `json:"neutralRegulatorMaxSteps" yaml:"neutral_regulator_max_steps"`

	// AcidBufferPerDegreeLitre is grams of acid buffer lowering 1 L by 1 dKH.
	// Manufacturer rate: 1.5 g per 40 L lowers 2.8 dKH.
	AcidBufferPerDegreeLitre float64 `json:"acidBufferPerDegreeLitre" yaml:"acid_buffer_per_degree_litre"`

	// GoldBufferFullRate is grams per litre of a full gold buffer dose (6 g / 40 L).
	GoldBufferFullRate float64 `json:"goldBufferFullRate" yaml:"gold_buffer_full_rate"`

	// GoldBufferFullDoseDelta is the pH rise at or above which a full dose is used.
	GoldBufferFullDoseDelta float64 `json:"goldBufferFullDoseDelta" yaml:"gold_buffer_full_dose_delta"`

	// GoldBufferHalfFactor scales the dose for small pH rises.
	GoldBufferHalfFactor float64 `json:"goldBufferHalfFactor" yaml:"gold_buffer_half_factor"`

	// DetoxifierMLPerLitre is the emergency ammonia/nitrite detoxifier rate (5 mL / 200 L).
	DetoxifierMLPerLitre float64 `json:"detoxifierMlPerLitre" yaml:"detoxifier_ml_per_litre"`

	// BioBoosterMLPerLitre is the biological filtration booster rate (5 mL / 40 L).
	BioBoosterMLPerLitre float64 `json:"bioBoosterMlPerLitre" yaml:"bio_booster_ml_per_litre"`

	// PurityMin and PurityMax bound the accepted KHCO3 purity fraction.
	PurityMin float64 `json:"purityMin" yaml:"purity_min"`
	PurityMax float64 `json:"purityMax" yaml:"purity_max"`

	// SplitThresholdGrams is the dose below which splitting is not advised.
	SplitThresholdGrams float64 `json:"splitThresholdGrams" yaml:"split_threshold_grams"`

	// NegligibleGrams is the dose at or below which no advice is given.
	NegligibleGrams float64 `json:"negligibleGrams" yaml:"negligible_grams"`

	// NitrateWarningPPM is the nitrate level above which a warning is raised.
	NitrateWarningPPM float64 `json:"nitrateWarningPpm" yaml:"nitrate_warning_ppm"`

	// LowHardnessDegrees is the GH/KH level below which hardness is reported low.
	LowHardnessDegrees float64 `json:"lowHardnessDegrees" yaml:"low_hardness_degrees"`
}

// DefaultCoefficients returns the corrected calibration profile.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		Version:                      DefaultCoefficientsVersion,
		USGallonLitres:               3.785411784,
		UKGallonLitres:               4.54609,
		PPMPerDegree:                 17.86,
		KHCO3PerDegreeLitre:          0.02985,
		EquilibriumPerDegreeLitre:    16.0 / (80 * 3),
		NeutralRegulatorMinRate:      0.0625,
		NeutralRegulatorMaxRate:      0.125,
		NeutralRegulatorKHSaturation: 4,
		NeutralRegulatorPHStep:       0.5,
		NeutralRegulatorMaxSteps:     2,
		AcidBufferPerDegreeLitre:     1.5 / (40 * 2.8),
		GoldBufferFullRate:           6.0 / 40,
		GoldBufferFullDoseDelta:      0.3,
		GoldBufferHalfFactor:         0.5,
		DetoxifierMLPerLitre:         5.0 / 200,
		BioBoosterMLPerLitre:         5.0 / 40,
		PurityMin:                    0.5,
		PurityMax:                    1.0,
		SplitThresholdGrams:          0.3,
		NegligibleGrams:              0.01,
		NitrateWarningPPM:            50,
		LowHardnessDegrees:           3,
	}
}

// WithDefaults fills zero-valued fields from DefaultCoefficients.
func (c Coefficients) WithDefaults() Coefficients {
	d := DefaultCoefficients()
	if c.Version == "" {
		c.Version = d.Version
	}
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&c.USGallonLitres, d.USGallonLitres)
	fill(&c.UKGallonLitres, d.UKGallonLitres)
	fill(&c.PPMPerDegree, d.PPMPerDegree)
	fill(&c.KHCO3PerDegreeLitre, d.KHCO3PerDegreeLitre)
	fill(&c.EquilibriumPerDegreeLitre, d.EquilibriumPerDegreeLitre)
	fill(&c.NeutralRegulatorMinRate, d.NeutralRegulatorMinRate)
	fill(&c.NeutralRegulatorMaxRate, d.NeutralRegulatorMaxRate)
	fill(&c.NeutralRegulatorKHSaturation, d.NeutralRegulatorKHSaturation)
	fill(&c.NeutralRegulatorPHStep, d.NeutralRegulatorPHStep)
	fill(&c.NeutralRegulatorMaxSteps, d.NeutralRegulatorMaxSteps)
	fill(&c.AcidBufferPerDegreeLitre, d.AcidBufferPerDegreeLitre)
	fill(&c.GoldBufferFullRate, d.GoldBufferFullRate)
	fill(&c.GoldBufferFullDoseDelta, d.GoldBufferFullDoseDelta)
	fill(&c.GoldBufferHalfFactor, d.GoldBufferHalfFactor)
	fill(&c.DetoxifierMLPerLitre, d.DetoxifierMLPerLitre)
	fill(&c.BioBoosterMLPerLitre, d.BioBoosterMLPerLitre)
	fill(&c.PurityMin, d.PurityMin)
	fill(&c.PurityMax, d.PurityMax)
	fill(&c.SplitThresholdGrams, d.SplitThresholdGrams)
	fill(&c.NegligibleGrams, d.NegligibleGrams)
	fill(&c.NitrateWarningPPM, d.NitrateWarningPPM)
	fill(&c.LowHardnessDegrees, d.LowHardnessDegrees)
	return c
}

// Validate reports whether the profile can be used by a Calculator.
func (c Coefficients) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidCoefficients)
	}
	positive := []struct {
		name  string
		value float64
	}{
		{"usGallonLitres", c.USGallonLitres},
		{"ukGallonLitres", c.UKGallonLitres},
		{"ppmPerDegree", c.PPMPerDegree},
		{"khco3PerDegreeLitre", c.KHCO3PerDegreeLitre},
		{"equilibriumPerDegreeLitre", c.EquilibriumPerDegreeLitre},
		{"neutralRegulatorMinRate", c.NeutralRegulatorMinRate},
		{"neutralRegulatorMaxRate", c.NeutralRegulatorMaxRate},
		{"neutralRegulatorKhSaturation", c.NeutralRegulatorKHSaturation},
		{"neutralRegulatorPhStep", c.NeutralRegulatorPHStep},
		{"neutralRegulatorMaxSteps", c.NeutralRegulatorMaxSteps},
		{"acidBufferPerDegreeLitre", c.AcidBufferPerDegreeLitre},
		{"goldBufferFullRate", c.GoldBufferFullRate},
		{"goldBufferFullDoseDelta", c.GoldBufferFullDoseDelta},
		{"goldBufferHalfFactor", c.GoldBufferHalfFactor},
		{"detoxifierMlPerLitre", c.DetoxifierMLPerLitre},
		{"bioBoosterMlPerLitre", c.BioBoosterMLPerLitre},
		{"purityMin", c.PurityMin},
		{"purityMax", c.PurityMax},
		{"splitThresholdGrams", c.SplitThresholdGrams},
		{"nitrateWarningPpm", c.NitrateWarningPPM},
		{"lowHardnessDegrees", c.LowHardnessDegrees},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s must be finite and > 0", ErrInvalidCoefficients, p.name)
		}
	}
	if !(c.NegligibleGrams >= 0) || math.IsInf(c.NegligibleGrams, 0) {
		return fmt.Errorf("%w: negligibleGrams must be finite and >= 0", ErrInvalidCoefficients)
	}
	if c.NeutralRegulatorMinRate > c.NeutralRegulatorMaxRate {
		return fmt.Errorf("%w: neutral regulator min rate exceeds max rate", ErrInvalidCoefficients)
	}
	if c.PurityMin > c.PurityMax || c.PurityMax > 1 {
		return fmt.Errorf("%w: purity range must satisfy 0 < min <= max <= 1", ErrInvalidCoefficients)
	}
	if c.GoldBufferHalfFactor > 1 {
		return fmt.Errorf("%w: gold buffer half factor must be <= 1", ErrInvalidCoefficients)
	}
	return nil
}
