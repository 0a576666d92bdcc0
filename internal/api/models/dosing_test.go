package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquadose/aquadose/internal/api/models"
	"github.com/aquadose/aquadose/internal/dosing"
)

func TestCalculateRequest_ToDosing_OmittedFieldsUseDefaults(t *testing.T) {
	var body models.CalculateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"volume": 200, "khTarget": 5}`), &body))

	req, errs := body.ToDosing()
	require.Empty(t, errs)

	defaults := dosing.DefaultRequest()
	assert.Equal(t, 200.0, req.Volume)
	assert.Equal(t, 5.0, req.KHTarget)
	assert.Equal(t, defaults.KHCurrent, req.KHCurrent)
	assert.Equal(t, defaults.KHPurity, req.KHPurity)
	assert.Equal(t, defaults.Unit, req.Unit)
	assert.Equal(t, defaults.PHGoldTarget, req.PHGoldTarget)
	assert.Empty(t, req.Locale)
}

func TestCalculateRequest_ToDosing_ExplicitZeroIsKept(t *testing.T) {
	var body models.CalculateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"volume": 0}`), &body))

	req, errs := body.ToDosing()
	require.Empty(t, errs)
	assert.Equal(t, 0.0, req.Volume)
}

func TestCalculateRequest_ToDosing_Unit(t *testing.T) {
	tests := []struct {
		unit    string
		want    dosing.Unit
		wantErr bool
	}{
		{unit: "L", want: dosing.UnitLitres},
		{unit: "us", want: dosing.UnitUSGallons},
		{unit: "UK", want: dosing.UnitUKGallons},
		{unit: "barrels", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			unit := tt.unit
			body := models.CalculateRequest{Unit: &unit}
			req, errs := body.ToDosing()
			if tt.wantErr {
				require.Len(t, errs, 1)
				assert.Equal(t, "unit", errs[0].Field)
				assert.Equal(t, models.CodeInvalidUnit, errs[0].Code)
				return
			}
			require.Empty(t, errs)
			assert.Equal(t, tt.want, req.Unit)
		})
	}
}

func TestCalculateRequest_ToDosing_Readings(t *testing.T) {
	var body models.CalculateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"readings": {"ammonia": 0.5, "kh": 71.6}}`), &body))

	req, errs := body.ToDosing()
	require.Empty(t, errs)
	require.NotNil(t, req.Readings.Ammonia)
	assert.Equal(t, 0.5, *req.Readings.Ammonia)
	require.NotNil(t, req.Readings.KH)
	assert.Nil(t, req.Readings.Nitrite)
}

func TestNewCalculateRequest_RoundTripsDefaults(t *testing.T) {
	defaults := dosing.DefaultRequest()
	body := models.NewCalculateRequest(defaults)

	req, errs := body.ToDosing()
	require.Empty(t, errs)
	req.Locale = defaults.Locale
	assert.Equal(t, defaults, req)
}

func TestNewCalculateResponse_Valid(t *testing.T) {
	calc := dosing.NewCalculator(dosing.DefaultCoefficients())
	req := dosing.DefaultRequest()
	result := calc.Calculate(req)
	require.True(t, result.Valid())

	resp := models.NewCalculateResponse(result)

	assert.Equal(t, result.Litres, resp.Litres)
	assert.Equal(t, result.KHCO3Dose, resp.Doses.KHCO3)
	assert.Equal(t, result.GoldBufferDose, resp.Doses.GoldBuffer)
	assert.Equal(t, dosing.DefaultCoefficientsVersion, resp.CalibrationVersion)
	assert.Equal(t, "en", resp.Locale)
	assert.Len(t, resp.Labels, len(dosing.Products()))
	assert.NotNil(t, resp.Errors)
	assert.Empty(t, resp.Errors)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "doses")
	assert.Contains(t, raw, "splitAdvice")
	assert.Equal(t, []interface{}{}, raw["errors"])
}

func TestNewCalculateResponse_Invalid(t *testing.T) {
	calc := dosing.NewCalculator(dosing.DefaultCoefficients())
	req := dosing.DefaultRequest()
	req.Volume = 0
	result := calc.Calculate(req)
	require.False(t, result.Valid())

	resp := models.NewCalculateResponse(result)

	assert.Zero(t, resp.Doses.KHCO3)
	assert.Nil(t, resp.Labels)
	assert.Nil(t, resp.Parameters)
	assert.NotEmpty(t, resp.Errors)
}

func TestNewCalculateResponse_Parameters(t *testing.T) {
	ammonia := 0.5
	result := &dosing.Result{
		Litres:       100,
		CalculatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Parameters: &dosing.Classification{
			Ammonia:        dosing.ParameterStatus{Status: dosing.StatusWarning},
			Nitrite:        dosing.ParameterStatus{Status: dosing.StatusGood},
			Nitrate:        dosing.ParameterStatus{Status: dosing.StatusGood},
			GH:             dosing.ParameterStatus{Status: dosing.StatusInfo, DegreeValue: &ammonia},
			KH:             dosing.ParameterStatus{Status: dosing.StatusInfo},
			EmergencyDoses: map[dosing.Product]float64{dosing.ProductDetoxifier: 5},
		},
	}

	resp := models.NewCalculateResponse(result)

	require.NotNil(t, resp.Parameters)
	assert.Equal(t, "warning", resp.Parameters.Ammonia.Status)
	require.NotNil(t, resp.Parameters.GH.DegreeValue)
	assert.Equal(t, 5.0, resp.Parameters.EmergencyDoses[string(dosing.ProductDetoxifier)])

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"calculatedAt":"2024-03-01T12:00:00Z"`)
}

func TestNewFieldErrors(t *testing.T) {
	errs := models.NewFieldErrors([]dosing.FieldError{
		{Field: "volume", Code: dosing.CodeMustBePositive, Message: "bad volume"},
	})
	require.Len(t, errs, 1)
	assert.Equal(t, "volume", errs[0].Field)
	assert.Equal(t, dosing.CodeMustBePositive, errs[0].Code)
	assert.Equal(t, "bad volume", errs[0].Message)
}
