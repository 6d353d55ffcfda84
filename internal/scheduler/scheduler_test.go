package scheduler

import (
	"context"
	"testing"

	"gearloan-backend/internal/config"
	"gearloan-backend/internal/jobs"
	"gearloan-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
)

func newRunner(cfg config.SchedulerConfig, probe func(context.Context) error) *jobs.JobRunner {
	return jobs.NewJobRunner(memory.NewStore(), &config.Config{Scheduler: cfg}, jobs.WithHealthProbe(probe))
}

func TestNewScheduler_RegistersConfiguredJobs(t *testing.T) {
	runner := newRunner(config.SchedulerConfig{
		ReconcileStock:      "0 0 2 * * *",
		ReportOverdueReturn: "0 0 7 * * *",
		HealthProbe:         "0 */5 * * * *",
	}, nil)

	s := NewScheduler(runner)
	assert.Len(t, s.cron.Entries(), 3)
	assert.True(t, s.IsRunning())

	s = NewScheduler(runner, JobHealthProbe)
	assert.Len(t, s.cron.Entries(), 1)
}

func TestNewScheduler_SkipsBadAndEmptySpecs(t *testing.T) {
	runner := newRunner(config.SchedulerConfig{
		ReconcileStock: "not a cron spec",
		HealthProbe:    "0 */5 * * * *",
	}, nil)

	s := NewScheduler(runner)
	assert.Len(t, s.cron.Entries(), 1)
}

func TestRunOnce(t *testing.T) {
	probes := 0
	runner := newRunner(config.SchedulerConfig{}, func(context.Context) error {
		probes++
		return nil
	})
	s := NewScheduler(runner)
	assert.False(t, s.IsRunning())

	assert.True(t, s.RunOnce(JobHealthProbe))
	assert.True(t, s.RunOnce("all"))
	assert.False(t, s.RunOnce("send-reminders"))
	assert.Equal(t, 2, probes)
}
