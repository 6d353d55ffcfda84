package jobs

import (
	"context"
	"time"

	"gearloan-backend/internal/config"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/repository"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store  repository.Store
	config *config.Config
	now    func() time.Time
	probe  func(ctx context.Context) error
}

// Option customises a JobRunner
type Option func(*JobRunner)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(jr *JobRunner) { jr.now = now }
}

// WithHealthProbe sets what HealthProbe runs. Without it the probe only pings the store.
func WithHealthProbe(probe func(ctx context.Context) error) Option {
	return func(jr *JobRunner) { jr.probe = probe }
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store repository.Store, cfg *config.Config, opts ...Option) *JobRunner {
	jr := &JobRunner{
		store:  store,
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(jr)
	}
	if jr.probe == nil {
		jr.probe = store.Ping
	}
	return jr
}

// Config returns the configuration the jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := jr.now()
	logger.Info("Starting job", "job", jobName)
	if err := jobFunc(ctx); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return
	}
	logger.Info("Job completed", "job", jobName, "duration_ms", jr.now().Sub(start).Milliseconds())
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.HealthProbe()
	jr.ReconcileStock()
	jr.ReportOverdueReturns()
}
