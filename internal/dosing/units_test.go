package dosing_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aquadose/aquadose/internal/dosing"
)

func TestToLitres(t *testing.T) {
	c := dosing.DefaultCoefficients()

	assert.InDelta(t, 37.85411784, dosing.ToLitres(10, dosing.UnitUSGallons, c), 1e-9)
	assert.InDelta(t, 45.4609, dosing.ToLitres(10, dosing.UnitUKGallons, c), 1e-9)
	assert.Equal(t, 10.0, dosing.ToLitres(10, dosing.UnitLitres, c))
	assert.Equal(t, 10.0, dosing.ToLitres(10, dosing.Unit("barrels"), c))
}

func TestToLitres_RoundTrip(t *testing.T) {
	c := dosing.DefaultCoefficients()

	for _, unit := range dosing.Units() {
		for _, v := range []float64{0.5, 1, 10, 123.45, 1000} {
			got := dosing.FromLitres(dosing.ToLitres(v, unit, c), unit, c)
			assert.InDelta(t, v, got, 1e-9, "unit=%s volume=%v", unit, v)
		}
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		input    string
		expected dosing.Unit
		ok       bool
	}{
		{"L", dosing.UnitLitres, true},
		{" liters ", dosing.UnitLitres, true},
		{"US", dosing.UnitUSGallons, true},
		{"gal", dosing.UnitUSGallons, true},
		{"uk", dosing.UnitUKGallons, true},
		{"imp", dosing.UnitUKGallons, true},
		{"pints", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := dosing.ParseUnit(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPPMToDegrees(t *testing.T) {
	c := dosing.DefaultCoefficients()

	assert.InDelta(t, 3.0, dosing.PPMToDegrees(53.58, c), 1e-9)
	assert.InDelta(t, 6.0, dosing.PPMToDegrees(107.16, c), 1e-9)
	assert.Equal(t, 0.0, dosing.PPMToDegrees(0, c))
	assert.Equal(t, 0.0, dosing.PPMToDegrees(-5, c))
	assert.Equal(t, 0.0, dosing.PPMToDegrees(math.NaN(), c))
	assert.Equal(t, 0.0, dosing.PPMToDegrees(math.Inf(1), c))
}
