package dosing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquadose/aquadose/internal/dosing"
)

func ptr(v float64) *float64 {
	return &v
}

func TestClassify_NoReadings(t *testing.T) {
	calc := newCalculator()

	got := calc.Classify(dosing.TestKitReadings{}, 100, dosing.LocaleEnglish)

	assert.Equal(t, dosing.StatusGood, got.Ammonia.Status)
	assert.Equal(t, dosing.StatusGood, got.Nitrite.Status)
	assert.Equal(t, dosing.StatusGood, got.Nitrate.Status)
	assert.Equal(t, dosing.StatusInfo, got.GH.Status)
	require.NotNil(t, got.GH.DegreeValue)
	assert.Equal(t, 0.0, *got.GH.DegreeValue)
	assert.Equal(t, []string{"All parameters are within safe ranges."}, got.Recommendations)
	assert.Empty(t, got.EmergencyDoses)
}

func TestClassify_Ammonia(t *testing.T) {
	calc := newCalculator()

	got := calc.Classify(dosing.TestKitReadings{Ammonia: ptr(0.5)}, tenUSGallons, dosing.LocaleEnglish)

	assert.Equal(t, dosing.StatusWarning, got.Ammonia.Status)
	assert.Equal(t, []string{
		"Ammonia detected: perform a partial water change.",
		"Dose 0.95 mL of ammonia/nitrite detoxifier.",
	}, got.Recommendations)
	assert.InDelta(t, 0.94635, got.EmergencyDoses[dosing.ProductDetoxifier], 1e-6)
}

func TestClassify_NitriteWithoutVolume(t *testing.T) {
	calc := newCalculator()

	got := calc.Classify(dosing.TestKitReadings{Nitrite: ptr(0.25)}, 0, dosing.LocaleEnglish)

	assert.Equal(t, dosing.StatusWarning, got.Nitrite.Status)
	assert.Contains(t, got.Recommendations, "Enter the tank volume to calculate the emergency dose.")
	assert.NotContains(t, got.EmergencyDoses, dosing.ProductBioBooster)
}

func TestClassify_NitriteWithVolume(t *testing.T) {
	calc := newCalculator()

	got := calc.Classify(dosing.TestKitReadings{Nitrite: ptr(0.25)}, tenUSGallons, dosing.LocaleEnglish)

	assert.Contains(t, got.Recommendations, "Dose 4.73 mL of biological filtration booster.")
	assert.InDelta(t, 4.73175, got.EmergencyDoses[dosing.ProductBioBooster], 1e-6)
}

func TestClassify_Nitrate(t *testing.T) {
	calc := newCalculator()

	atLimit := calc.Classify(dosing.TestKitReadings{Nitrate: ptr(50)}, 100, dosing.LocaleEnglish)
	assert.Equal(t, dosing.StatusGood, atLimit.Nitrate.Status)

	high := calc.Classify(dosing.TestKitReadings{Nitrate: ptr(60)}, 100, dosing.LocaleEnglish)
	assert.Equal(t, dosing.StatusWarning, high.Nitrate.Status)
	assert.Equal(t, []string{"Nitrate is high (60.00 ppm): perform a water change."}, high.Recommendations)
}

func TestClassify_Hardness(t *testing.T) {
	calc := newCalculator()

	got := calc.Classify(dosing.TestKitReadings{GH: ptr(35.72), KH: ptr(107.16)}, 100, dosing.LocaleEnglish)

	require.NotNil(t, got.GH.DegreeValue)
	require.NotNil(t, got.KH.DegreeValue)
	assert.InDelta(t, 2.0, *got.GH.DegreeValue, 1e-9)
	assert.InDelta(t, 6.0, *got.KH.DegreeValue, 1e-9)
	assert.Equal(t, dosing.StatusInfo, got.GH.Status)
	assert.Equal(t, dosing.StatusInfo, got.KH.Status)
	assert.Equal(t, []string{"GH is low (2.00 °dGH): consider a GH booster."}, got.Recommendations)
}

func TestClassify_Dutch(t *testing.T) {
	calc := newCalculator()

	got := calc.Classify(dosing.TestKitReadings{}, 100, dosing.LocaleDutch)

	assert.Equal(t, []string{"Alle waarden zijn in orde."}, got.Recommendations)
}

func TestClassification_Statuses(t *testing.T) {
	calc := newCalculator()

	got := calc.Classify(dosing.TestKitReadings{Ammonia: ptr(1)}, 100, dosing.LocaleEnglish).Statuses()

	assert.Len(t, got, 5)
	assert.Equal(t, dosing.StatusWarning, got[dosing.ParameterAmmonia].Status)
	assert.Equal(t, dosing.StatusGood, got[dosing.ParameterNitrite].Status)
}
