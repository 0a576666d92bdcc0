package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquadose/aquadose/internal/api/models"
	"github.com/aquadose/aquadose/internal/auth"
	"github.com/aquadose/aquadose/internal/dosing"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeCalibration(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calibration.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestCalc_JSON(t *testing.T) {
	out, _, err := execute(t, "calc", "--volume", "10", "--unit", "US", "--format", "json")
	require.NoError(t, err)

	var resp models.CalculateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.InDelta(t, 37.854, resp.Litres, 0.01)
	assert.Equal(t, dosing.DefaultCoefficientsVersion, resp.CalibrationVersion)
	assert.Greater(t, resp.Doses.KHCO3, 0.0)
}

func TestCalc_Text(t *testing.T) {
	out, _, err := execute(t, "calc", "--volume", "100", "--ammonia", "0.5")
	require.NoError(t, err)

	assert.Contains(t, out, dosing.DefaultCoefficientsVersion)
	assert.Contains(t, out, "100.00 L")
	assert.Contains(t, out, "AMMONIA")
	assert.Contains(t, out, "warning")
}

func TestCalc_CSV(t *testing.T) {
	out, _, err := execute(t, "calc", "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	assert.Len(t, lines, 1+len(dosing.Products()))
}

func TestCalc_Dutch(t *testing.T) {
	out, _, err := execute(t, "calc", "--format", "json", "--locale", "nl")
	require.NoError(t, err)

	var resp models.CalculateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "nl", resp.Locale)
}

func TestCalc_Rejected(t *testing.T) {
	out, errOut, err := execute(t, "calc", "--volume", "0", "--format", "json")
	require.ErrorIs(t, err, errRejected)

	var resp models.CalculateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.NotEmpty(t, resp.Errors)
	assert.NotEmpty(t, errOut)
}

func TestCalc_RejectedText(t *testing.T) {
	out, errOut, err := execute(t, "calc", "--volume=-5", "--purity=0.2")
	require.ErrorIs(t, err, errRejected)

	assert.Contains(t, errOut, "Volume must be > 0")
	assert.Contains(t, errOut, "KHCO₃ purity must be between 0.50 and 1.00")
	assert.NotContains(t, out, "Volume must be > 0")
	assert.Contains(t, out, dosing.DefaultCoefficientsVersion)
}

func TestCalc_InvalidFlags(t *testing.T) {
	_, _, err := execute(t, "calc", "--unit", "barrels")
	require.Error(t, err)

	_, _, err = execute(t, "calc", "--format", "xml")
	require.Error(t, err)
}

func TestCalc_CalibrationProfile(t *testing.T) {
	path := writeCalibration(t, "profiles:\n"+
		"  - version: lab-1\n"+
		"    coefficients:\n"+
		"      khco3_per_degree_litre: 0.04\n"+
		"  - version: lab-2\n")

	out, _, err := execute(t, "calc", "--calibration", path, "--profile", "lab-1", "--format", "json")
	require.NoError(t, err)

	var resp models.CalculateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "lab-1", resp.CalibrationVersion)

	_, _, err = execute(t, "calc", "--calibration", path)
	require.Error(t, err, "two profiles need --profile")

	_, _, err = execute(t, "calc", "--calibration", path, "--profile", "lab-9")
	require.Error(t, err)
}

func TestSelfCheck_Default(t *testing.T) {
	out, _, err := execute(t, "selfcheck")
	require.NoError(t, err)

	assert.Contains(t, out, dosing.DefaultCoefficientsVersion)
	assert.NotContains(t, out, "DRIFT")
}

func TestSelfCheck_Drift(t *testing.T) {
	path := writeCalibration(t, "profiles:\n"+
		"  - version: drifted\n"+
		"    coefficients:\n"+
		"      khco3_per_degree_litre: 0.5\n")

	out, _, err := execute(t, "selfcheck", "--calibration", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drifted")
	assert.Contains(t, out, "DRIFT")
}

func TestToken(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "cli-test-signing-key")

	out, errOut, err := execute(t, "token", "--subject", "ops@aquadose.example", "--role", "admin", "--ttl", "2h")
	require.NoError(t, err)
	assert.Contains(t, errOut, "expires")

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "cli-test-signing-key",
		Issuer:     "https://api.aquadose.example",
		Audience:   "aquadose-admin",
	})
	claims, err := jwtService.ValidateAccessToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops@aquadose.example", claims.Subject)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestToken_RequiresSubject(t *testing.T) {
	_, _, err := execute(t, "token")
	require.Error(t, err)
}

func TestToken_InvalidRole(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "cli-test-signing-key")

	_, _, err := execute(t, "token", "--subject", "ops", "--role", "root")
	require.ErrorIs(t, err, auth.ErrInvalidRole)
}
