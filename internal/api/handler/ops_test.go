package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquadose/aquadose/internal/api/handler"
	"github.com/aquadose/aquadose/internal/api/models"
	"github.com/aquadose/aquadose/internal/resilience"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error {
	return p.err
}

type fakeBreaker struct {
	state gobreaker.State
}

func (b fakeBreaker) State() gobreaker.State   { return b.state }
func (b fakeBreaker) Counts() gobreaker.Counts { return gobreaker.Counts{} }

func TestOpsHandler_Readiness_DatabaseDown(t *testing.T) {
	h := handler.NewOpsHandler(handler.OpsConfig{
		DB: fakePinger{err: errors.New("connection refused")},
	})

	w := httptest.NewRecorder()
	h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusFail, health.Status)
	assert.Equal(t, "connection refused", health.Details["database"])
}

func TestOpsHandler_Readiness_DatabaseUp(t *testing.T) {
	h := handler.NewOpsHandler(handler.OpsConfig{DB: fakePinger{}})

	w := httptest.NewRecorder()
	h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpsHandler_Status_OpenCircuitDegrades(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("calibration-store", fakeBreaker{state: gobreaker.StateOpen})
	registry.RecordFailure("calibration-store", errors.New("timeout"))

	h := handler.NewOpsHandler(handler.OpsConfig{Registry: registry, DB: fakePinger{}})

	w := httptest.NewRecorder()
	h.SystemStatus(w, httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusDegraded, status.Status)
	require.Len(t, status.Dependencies, 1)
	dep := status.Dependencies[0]
	assert.Equal(t, "calibration-store", dep.Name)
	assert.Equal(t, models.HealthStatusFail, dep.Status)
	assert.Equal(t, "open", dep.CircuitState)
	require.NotNil(t, dep.Message)
	assert.Equal(t, "timeout", *dep.Message)
	assert.NotNil(t, dep.LastFailureAt)
}

func TestOpsHandler_Status_DatabaseDownFails(t *testing.T) {
	h := handler.NewOpsHandler(handler.OpsConfig{DB: fakePinger{err: errors.New("down")}})

	w := httptest.NewRecorder()
	h.SystemStatus(w, httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody))

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusFail, status.Status)
}
