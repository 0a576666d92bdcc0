package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// Config holds configuration for an Executor.
type Config struct {
	// Name identifies the executor for circuit breaker naming and health reporting.
	Name string

	// Timeout bounds every individual attempt.
	// Default: 2 seconds
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts.
	// Default: 3
	MaxRetries uint64

	// InitialInterval is the initial retry backoff interval.
	// Default: 50ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 1 second
	MaxInterval time.Duration

	// CircuitBreaker is the circuit breaker configuration.
	// If nil, uses DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig

	// Permanent reports errors that must not be retried and do not count
	// against the circuit breaker, such as "not found".
	Permanent func(error) bool

	// Registry receives health updates. Nil disables reporting.
	Registry *Registry

	// Metrics records call latency. Nil disables recording.
	Metrics *Metrics
}

// DefaultConfig returns defaults for calls to a backing store.
func DefaultConfig(name string) Config {
	cbConfig := DefaultCircuitBreakerConfig(name)
	return Config{
		Name:            name,
		Timeout:         2 * time.Second,
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
		CircuitBreaker:  &cbConfig,
	}
}

// Executor runs operations returning T with circuit breaker protection and retries.
type Executor[T any] struct {
	circuitBreaker *gobreaker.CircuitBreaker[T]
	config         Config
}

// NewExecutor creates a new Executor and registers it with cfg.Registry.
func NewExecutor[T any](cfg Config) *Executor[T] {
	def := DefaultConfig(cfg.Name)
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.CircuitBreaker == nil {
		cfg.CircuitBreaker = def.CircuitBreaker
	}
	if cfg.Permanent == nil {
		cfg.Permanent = func(error) bool { return false }
	}

	permanent := cfg.Permanent
	e := &Executor[T]{
		circuitBreaker: newCircuitBreaker[T](*cfg.CircuitBreaker, func(err error) bool {
			return err == nil || permanent(err)
		}),
		config: cfg,
	}

	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, e)
	}
	return e
}

// Name returns the executor name.
func (e *Executor[T]) Name() string {
	return e.config.Name
}

// Do runs op through the circuit breaker, retrying transient failures with
// exponential backoff. Permanent errors are returned immediately. Returns
// ErrCircuitOpen without calling op if the circuit breaker is open.
func (e *Executor[T]) Do(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.config.InitialInterval
	bo.MaxInterval = e.config.MaxInterval
	bo.MaxElapsedTime = 0 // Unlimited, we control retries via WithMaxRetries

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, e.config.MaxRetries), ctx)
	start := time.Now()

	var result T
	operation := func() error {
		v, err := e.circuitBreaker.Execute(func() (T, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
			defer cancel()
			return op(attemptCtx)
		})
		if err == nil {
			result = v
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		if e.config.Permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, policy)
	e.config.Metrics.RecordCall(e.config.Name, time.Since(start), err)
	e.record(err)
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func (e *Executor[T]) record(err error) {
	if e.config.Registry == nil {
		return
	}
	if err == nil || e.config.Permanent(err) {
		e.config.Registry.RecordSuccess(e.config.Name)
		return
	}
	e.config.Registry.RecordFailure(e.config.Name, err)
}

// State returns the current state of the circuit breaker.
func (e *Executor[T]) State() gobreaker.State {
	return e.circuitBreaker.State()
}

// Counts returns the current counts of the circuit breaker.
func (e *Executor[T]) Counts() gobreaker.Counts {
	return e.circuitBreaker.Counts()
}
