package dosing_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquadose/aquadose/internal/dosing"
)

func TestCalculate_DefaultRequest(t *testing.T) {
	calc := newCalculator()

	result := calc.Calculate(dosing.DefaultRequest())

	require.True(t, result.Valid())
	assert.Equal(t, 100.0, result.Litres)
	assert.InDelta(t, 6.0303, result.KHCO3Dose, 0.0001)
	assert.InDelta(t, 13.3333, result.EquilibriumDose, 0.0001)
	assert.True(t, result.EquilibriumRequired)
	assert.InDelta(t, 12.5, result.NeutralRegulatorDose, 1e-9)
	assert.InDelta(t, 2.6786, result.AcidBufferDose, 0.0001)
	assert.InDelta(t, 15.0, result.GoldBufferDose, 1e-9)
	assert.True(t, result.GoldBufferFullDose)

	assert.Equal(t, "3.02 g now + 3.02 g in 12–24 h", result.SplitAdvice.KHCO3)
	assert.Equal(t, "6.25 g now + 6.25 g in 12–24 h", result.SplitAdvice.NeutralRegulator)
	assert.Equal(t, "7.50 g now + 7.50 g in 12–24 h", result.SplitAdvice.GoldBuffer)

	require.NotNil(t, result.Parameters)
	assert.Equal(t, []string{"All parameters are within safe ranges."}, result.Recommendations)
	assert.Equal(t, dosing.DefaultCoefficientsVersion, result.CalibrationVersion)
	assert.Equal(t, dosing.LocaleEnglish, result.Locale)
	assert.False(t, result.CalculatedAt.IsZero())
}

func TestCalculate_USGallons(t *testing.T) {
	calc := newCalculator()
	req := dosing.DefaultRequest()
	req.Volume = 10
	req.Unit = dosing.UnitUSGallons
	req.KHCurrent = 2.2
	req.KHTarget = 4

	result := calc.Calculate(req)

	require.True(t, result.Valid())
	assert.InDelta(t, 37.85411784, result.Litres, 1e-9)
	assert.InDelta(t, 2.0544, result.KHCO3Dose, 0.0001)
}

func TestCalculate_EquilibriumNotRequired(t *testing.T) {
	calc := newCalculator()
	req := dosing.DefaultRequest()
	req.GHCurrent = 8
	req.GHTarget = 6

	result := calc.Calculate(req)

	assert.False(t, result.EquilibriumRequired)
	assert.Equal(t, 0.0, result.EquilibriumDose)
	assert.Empty(t, result.SplitAdvice.Equilibrium)
	assert.False(t, result.Required(dosing.ProductEquilibrium))
}

func TestCalculate_NoOpTargets(t *testing.T) {
	calc := newCalculator()
	req := dosing.DefaultRequest()
	req.KHTarget = req.KHCurrent
	req.PHTarget = req.PHCurrent
	req.AcidTargetKH = req.AcidCurrentKH
	req.PHGoldTarget = req.PHGoldCurrent
	req.GHTarget = req.GHCurrent

	result := calc.Calculate(req)

	require.True(t, result.Valid())
	for _, p := range dosing.Products() {
		assert.Equal(t, 0.0, result.Dose(p), "product=%s", p)
		assert.False(t, result.Required(p), "product=%s", p)
		assert.Empty(t, result.Advice(p), "product=%s", p)
	}
	assert.False(t, result.GoldBufferFullDose)
}

func TestCalculate_InvalidZeroesEverything(t *testing.T) {
	calc := newCalculator()
	req := dosing.DefaultRequest()
	req.Volume = 0
	req.KHPurity = 0.2
	req.Readings.Ammonia = ptr(1)

	result := calc.Calculate(req)

	assert.False(t, result.Valid())
	assert.Equal(t, []string{
		"Volume must be > 0",
		"KHCO₃ purity must be between 0.50 and 1.00",
	}, result.Errors)
	assert.Len(t, result.FieldErrors, 2)
	for _, p := range dosing.Products() {
		assert.Equal(t, 0.0, result.Dose(p), "product=%s", p)
		assert.False(t, result.Required(p), "product=%s", p)
	}
	assert.False(t, result.GoldBufferFullDose)
	assert.Nil(t, result.Parameters)
	assert.Empty(t, result.Recommendations)
}

func TestCalculate_NonFiniteVolume(t *testing.T) {
	calc := newCalculator()
	req := dosing.DefaultRequest()
	req.Volume = math.NaN()

	result := calc.Calculate(req)

	assert.Equal(t, []string{"Volume must be > 0"}, result.Errors)
}

func TestCalculate_EmergencyDoses(t *testing.T) {
	calc := newCalculator()
	req := dosing.DefaultRequest()
	req.Readings = dosing.TestKitReadings{Ammonia: ptr(0.5), Nitrite: ptr(0.5)}

	result := calc.Calculate(req)

	require.NotNil(t, result.Parameters)
	assert.InDelta(t, 2.5, result.Parameters.EmergencyDoses[dosing.ProductDetoxifier], 1e-9)
	assert.InDelta(t, 12.5, result.Parameters.EmergencyDoses[dosing.ProductBioBooster], 1e-9)
	assert.Len(t, result.Recommendations, 4)
}

func TestCalculate_NumbersIndependentOfLocale(t *testing.T) {
	calc := newCalculator()
	en := dosing.DefaultRequest()
	nl := dosing.DefaultRequest()
	nl.Locale = dosing.LocaleDutch

	a := calc.Calculate(en)
	b := calc.Calculate(nl)

	for _, p := range dosing.Products() {
		assert.Equal(t, a.Dose(p), b.Dose(p), "product=%s", p)
	}
	assert.Equal(t, "6.25 g nu + 6.25 g over 12–24 uur", b.SplitAdvice.NeutralRegulator)
}
