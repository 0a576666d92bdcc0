package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// CacheInvalidator drops in-memory caches.
type CacheInvalidator interface {
	InvalidateCache()
}

// InvalidateJob returns a job that clears c's cache.
func InvalidateJob(c CacheInvalidator, logger zerolog.Logger) JobFunc {
	return func(_ context.Context, msg JobMessage) error {
		c.InvalidateCache()
		logger.Info().
			Str("job_type", msg.JobType).
			Str("version", msg.Version).
			Str("key", msg.Key).
			Msg("cache invalidated")
		return nil
	}
}

// AuditJobFunc adapts an AuditJob to the dispatcher. Drift is logged by the
// job and does not fail the message.
func AuditJobFunc(j *AuditJob) JobFunc {
	return func(ctx context.Context, _ JobMessage) error {
		_, err := j.Run(ctx)
		return err
	}
}

// HealthCheckJob returns a job that succeeds when the profile store can be
// listed.
func HealthCheckJob(profiles ProfileLister) JobFunc {
	return func(ctx context.Context, _ JobMessage) error {
		list, err := profiles.List(ctx)
		if err != nil {
			return fmt.Errorf("health check: %w", err)
		}
		if len(list) == 0 {
			return fmt.Errorf("health check: no calibration profiles")
		}
		return nil
	}
}
