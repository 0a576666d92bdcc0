package resilience_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquadose/aquadose/internal/resilience"
)

var errNotFound = errors.New("not found")

func fastConfig(name string) resilience.Config {
	cbConfig := resilience.DefaultCircuitBreakerConfig(name)
	// Increase threshold so circuit doesn't trip during retry tests
	cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.Requests >= 100
	}
	return resilience.Config{
		Name:            name,
		Timeout:         time.Second,
		MaxRetries:      5,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		CircuitBreaker:  &cbConfig,
		Permanent:       func(err error) bool { return errors.Is(err, errNotFound) },
	}
}

func TestExecutor_Success(t *testing.T) {
	exec := resilience.NewExecutor[string](resilience.DefaultConfig("test"))

	got, err := exec.Do(context.Background(), func(context.Context) (string, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, "test", exec.Name())
}

func TestExecutor_RetriesTransientErrors(t *testing.T) {
	var attempts atomic.Int32
	exec := resilience.NewExecutor[int](fastConfig("test-retry"))

	got, err := exec.Do(context.Background(), func(context.Context) (int, error) {
		if attempts.Add(1) < 3 {
			return 0, errors.New("connection reset")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, int32(3), attempts.Load(), "should have retried until success")
}

func TestExecutor_PermanentErrorsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	exec := resilience.NewExecutor[int](fastConfig("test-permanent"))

	_, err := exec.Do(context.Background(), func(context.Context) (int, error) {
		attempts.Add(1)
		return 0, errNotFound
	})

	assert.ErrorIs(t, err, errNotFound)
	assert.Equal(t, int32(1), attempts.Load(), "should not retry permanent errors")
	assert.Equal(t, uint32(0), exec.Counts().TotalFailures, "permanent errors do not count as failures")
}

func TestExecutor_GivesUpAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	cfg := fastConfig("test-exhausted")
	cfg.MaxRetries = 2
	exec := resilience.NewExecutor[int](cfg)

	_, err := exec.Do(context.Background(), func(context.Context) (int, error) {
		attempts.Add(1)
		return 0, errors.New("database down")
	})

	assert.EqualError(t, err, "database down")
	assert.Equal(t, int32(3), attempts.Load())
}

func TestExecutor_CircuitBreakerTrips(t *testing.T) {
	var attempts atomic.Int32
	cbConfig := resilience.DefaultCircuitBreakerConfig("test-cb")
	cbConfig.Timeout = time.Minute
	cfg := resilience.Config{
		Name:            "test-cb",
		MaxRetries:      1,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		CircuitBreaker:  &cbConfig,
	}
	exec := resilience.NewExecutor[int](cfg)

	failing := func(context.Context) (int, error) {
		attempts.Add(1)
		return 0, errors.New("database down")
	}

	for i := 0; i < 3; i++ {
		_, _ = exec.Do(context.Background(), failing)
	}
	assert.Equal(t, gobreaker.StateOpen, exec.State())

	before := attempts.Load()
	_, err := exec.Do(context.Background(), failing)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, before, attempts.Load(), "open circuit should not call the operation")
}

func TestExecutor_AttemptTimeout(t *testing.T) {
	cfg := fastConfig("test-timeout")
	cfg.Timeout = 10 * time.Millisecond
	cfg.MaxRetries = 1
	exec := resilience.NewExecutor[int](cfg)

	_, err := exec.Do(context.Background(), func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecutor_ContextCancellation(t *testing.T) {
	exec := resilience.NewExecutor[int](fastConfig("test-cancel"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Do(ctx, func(context.Context) (int, error) {
		return 0, errors.New("database down")
	})

	assert.Error(t, err)
}

func TestExecutor_ReportsToRegistry(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := fastConfig("calibration-store")
	cfg.MaxRetries = 1
	cfg.Registry = registry
	exec := resilience.NewExecutor[int](cfg)

	_, _ = exec.Do(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("database down")
	})

	health := registry.GetHealth("calibration-store")
	require.NotNil(t, health)
	require.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "database down", health.LastError)

	_, _ = exec.Do(context.Background(), func(context.Context) (int, error) {
		return 1, nil
	})

	health = registry.GetHealth("calibration-store")
	require.NotNil(t, health.LastSuccessAt)
}

func TestDefaultReadyToTrip(t *testing.T) {
	tests := []struct {
		name     string
		counts   gobreaker.Counts
		expected bool
	}{
		{"not enough requests", gobreaker.Counts{Requests: 4, TotalFailures: 4}, false},
		{"enough requests but low failure rate", gobreaker.Counts{Requests: 10, TotalFailures: 4}, false},
		{"enough requests and high failure rate", gobreaker.Counts{Requests: 10, TotalFailures: 5}, true},
		{"exactly 5 requests all failing", gobreaker.Counts{Requests: 5, TotalFailures: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resilience.DefaultReadyToTrip(tt.counts))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := resilience.DefaultConfig("store")

	assert.Equal(t, "store", cfg.Name)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, uint64(3), cfg.MaxRetries)
	require.NotNil(t, cfg.CircuitBreaker)
	assert.Equal(t, uint32(1), cfg.CircuitBreaker.MaxRequests)
}
