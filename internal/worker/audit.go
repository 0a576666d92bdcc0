package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquadose/aquadose/internal/calibration"
	"github.com/aquadose/aquadose/internal/dosing"
)

// ProfileLister lists the calibration profiles to audit.
type ProfileLister interface {
	List(ctx context.Context) ([]*calibration.Profile, error)
}

// AuditJob checks every calibration profile against the reference scenarios.
type AuditJob struct {
	config   AuditConfig
	profiles ProfileLister
	logger   zerolog.Logger

	metrics *AuditMetrics
}

// AuditMetrics tracks audit job statistics.
type AuditMetrics struct {
	mu sync.RWMutex

	TotalRuns       int64
	FailedRuns      int64
	ProfilesChecked int64
	ProfilesDrifted int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
	LastDrifted     []string
}

// AuditJobConfig holds configuration for creating an AuditJob.
type AuditJobConfig struct {
	Config   AuditConfig
	Profiles ProfileLister
	Logger   zerolog.Logger
}

// NewAuditJob creates a new audit job.
func NewAuditJob(cfg AuditJobConfig) *AuditJob {
	return &AuditJob{
		config:   cfg.Config.withDefaults(),
		profiles: cfg.Profiles,
		logger:   cfg.Logger,
		metrics:  &AuditMetrics{},
	}
}

// AuditResult contains the result of one audit run.
type AuditResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Reports []dosing.SelfCheckReport
	Passed  int
	Drifted []string
}

// Healthy reports whether no profile drifted.
func (r *AuditResult) Healthy() bool {
	return len(r.Drifted) == 0
}

// Run executes the audit. An error is returned only when the profiles could
// not be listed; drifted profiles are reported in the result.
func (j *AuditJob) Run(ctx context.Context) (*AuditResult, error) {
	startTime := time.Now()
	result := &AuditResult{StartTime: startTime}

	listCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	profiles, err := j.profiles.List(listCtx)
	cancel()
	if err != nil {
		j.recordFailure()
		return nil, fmt.Errorf("listing calibration profiles: %w", err)
	}

	if j.config.SkipBuiltin {
		filtered := make([]*calibration.Profile, 0, len(profiles))
		for _, p := range profiles {
			if p.Version != dosing.DefaultCoefficientsVersion {
				filtered = append(filtered, p)
			}
		}
		profiles = filtered
	}

	j.logger.Info().
		Int("profiles", len(profiles)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting calibration audit")

	profilesChan := make(chan *calibration.Profile, len(profiles))
	reportsChan := make(chan dosing.SelfCheckReport, len(profiles))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.auditWorker(ctx, profilesChan, reportsChan)
		}()
	}

	for _, p := range profiles {
		profilesChan <- p
	}
	close(profilesChan)

	go func() {
		wg.Wait()
		close(reportsChan)
	}()

	for report := range reportsChan {
		result.Reports = append(result.Reports, report)
		if report.Passed() {
			result.Passed++
			continue
		}
		result.Drifted = append(result.Drifted, report.CalibrationVersion)
		for _, c := range report.Failed() {
			j.logger.Warn().
				Str("calibration_version", report.CalibrationVersion).
				Str("check", c.Name).
				Float64("expected", c.Expected).
				Float64("actual", c.Actual).
				Msg("calibration drifted from reference")
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("passed", result.Passed).
		Strs("drifted", result.Drifted).
		Msg("calibration audit completed")

	return result, ctx.Err()
}

func (j *AuditJob) auditWorker(ctx context.Context, profiles <-chan *calibration.Profile, reports chan<- dosing.SelfCheckReport) {
	for p := range profiles {
		select {
		case <-ctx.Done():
			return
		default:
			reports <- dosing.SelfCheck(dosing.NewCalculator(p.Coefficients))
		}
	}
}

func (j *AuditJob) recordFailure() {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.FailedRuns++
	j.metrics.LastRunAt = time.Now()
}

func (j *AuditJob) updateMetrics(result *AuditResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.ProfilesChecked += int64(len(result.Reports))
	j.metrics.ProfilesDrifted += int64(len(result.Drifted))
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
	j.metrics.LastDrifted = append([]string(nil), result.Drifted...)
}

// GetMetrics returns a copy of the current metrics.
func (j *AuditJob) GetMetrics() AuditMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return AuditMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		FailedRuns:      j.metrics.FailedRuns,
		ProfilesChecked: j.metrics.ProfilesChecked,
		ProfilesDrifted: j.metrics.ProfilesDrifted,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
		LastDrifted:     append([]string(nil), j.metrics.LastDrifted...),
	}
}

// Status is DEGRADED while the last run found drifted profiles, OK otherwise.
func (m AuditMetrics) Status() string {
	if len(m.LastDrifted) > 0 {
		return "DEGRADED"
	}
	return "OK"
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *AuditJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"status":            m.Status(),
		"total_runs":        m.TotalRuns,
		"failed_runs":       m.FailedRuns,
		"profiles_checked":  m.ProfilesChecked,
		"profiles_drifted":  m.ProfilesDrifted,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
		"last_drifted":      m.LastDrifted,
	}
}
