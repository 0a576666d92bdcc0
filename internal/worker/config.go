// Package worker provides background job processing for aquadose.
package worker

import (
	"time"
)

// Job types carried in the job_type field of Pub/Sub messages.
const (
	// JobCalibrationAudit runs the self-check against every stored profile.
	JobCalibrationAudit = "calibration_audit"

	// JobCalibrationInvalidate drops cached calibration profiles.
	JobCalibrationInvalidate = "calibration_invalidate"

	// JobFlagsInvalidate drops cached feature flags.
	JobFlagsInvalidate = "flags_invalidate"

	// JobHealthCheck verifies the worker can reach its stores.
	JobHealthCheck = "health_check"
)

// AuditConfig holds configuration for the calibration audit job.
type AuditConfig struct {
	// Concurrency is the number of profiles checked in parallel.
	// Default: 3
	Concurrency int

	// Timeout bounds loading the profile list.
	// Default: 30 seconds
	Timeout time.Duration

	// SkipBuiltin excludes the built-in default profile from the audit.
	SkipBuiltin bool
}

// DefaultAuditConfig returns the default audit configuration.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

func (c AuditConfig) withDefaults() AuditConfig {
	d := DefaultAuditConfig()
	if c.Concurrency < 1 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}
