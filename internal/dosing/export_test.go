package dosing_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquadose/aquadose/internal/dosing"
)

func TestLabel(t *testing.T) {
	calc := newCalculator()
	req := dosing.DefaultRequest()
	req.AcidTargetKH = req.AcidCurrentKH
	result := calc.Calculate(req)

	assert.Equal(t, "6.03 g KHCO₃", dosing.Label(result, dosing.ProductKHCO3, dosing.LocaleEnglish))
	assert.Equal(t, "No Acid Buffer required", dosing.Label(result, dosing.ProductAcidBuffer, dosing.LocaleEnglish))
	assert.Equal(t, "15.00 g Gold Buffer (full dose)", dosing.Label(result, dosing.ProductGoldBuffer, dosing.LocaleEnglish))
	assert.Equal(t, "Geen Acid Buffer nodig", dosing.Label(result, dosing.ProductAcidBuffer, dosing.LocaleDutch))
	assert.Equal(t, "15.00 g Gold Buffer (volle dosis)", dosing.Label(result, dosing.ProductGoldBuffer, dosing.LocaleDutch))
}

func TestLabel_HalfDose(t *testing.T) {
	calc := newCalculator()
	req := dosing.DefaultRequest()
	req.Volume = 40
	req.PHGoldCurrent = 7.0
	req.PHGoldTarget = 7.1

	result := calc.Calculate(req)

	assert.Equal(t, "3.00 g Gold Buffer (half dose)", dosing.Label(result, dosing.ProductGoldBuffer, dosing.LocaleEnglish))
}

func TestWriteCSV(t *testing.T) {
	calc := newCalculator()
	req := dosing.DefaultRequest()
	req.AcidTargetKH = req.AcidCurrentKH
	result := calc.Calculate(req)

	var buf bytes.Buffer
	require.NoError(t, dosing.WriteCSV(&buf, result, dosing.LocaleEnglish))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Parameter,Dose (g),Split Dose Info", lines[0])
	assert.Equal(t, "KHCO₃,6.03,3.02 g now + 3.02 g in 12–24 h", lines[1])
	assert.Equal(t, "Acid Buffer,0,", lines[4])
	assert.Equal(t, "Gold Buffer,15.00,7.50 g now + 7.50 g in 12–24 h", lines[5])
}

func TestWriteCSV_InvalidResult(t *testing.T) {
	calc := newCalculator()
	req := dosing.DefaultRequest()
	req.Volume = 0

	var buf bytes.Buffer
	require.NoError(t, dosing.WriteCSV(&buf, calc.Calculate(req), dosing.LocaleDutch))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Parameter,Dosis (g),Verdeeld doseren", lines[0])
	for _, line := range lines[1:] {
		assert.True(t, strings.HasSuffix(line, ",0,"), line)
	}
}

func TestKHCO3_ZeroDoseRendersNotRequired(t *testing.T) {
	calc := newCalculator()
	req := dosing.DefaultRequest()
	req.KHTarget = req.KHCurrent
	result := calc.Calculate(req)
	require.True(t, result.Valid())

	assert.False(t, result.Required(dosing.ProductKHCO3))
	assert.Equal(t, "No KHCO₃ required", dosing.Label(result, dosing.ProductKHCO3, dosing.LocaleEnglish))

	var buf bytes.Buffer
	require.NoError(t, dosing.WriteCSV(&buf, result, dosing.LocaleEnglish))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	assert.Equal(t, "KHCO₃,0,", lines[1])
}
