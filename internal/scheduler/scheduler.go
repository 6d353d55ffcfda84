package scheduler

import (
	"time"

	"gearloan-backend/internal/jobs"
	"gearloan-backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// Job names accepted by Only and by the cronjob -run-once flag
const (
	JobReconcileStock       = "reconcile-stock"
	JobReportOverdueReturns = "report-overdue-returns"
	JobHealthProbe          = "health-probe"
)

// NewScheduler creates a scheduler for the job runner. With no names every
// job with a configured schedule is registered, otherwise only the named ones.
func NewScheduler(jobRunner *jobs.JobRunner, only ...string) *Scheduler {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs(only)
	return s
}

func (s *Scheduler) specs() map[string]struct {
	spec string
	run  func()
} {
	cfg := s.jobs.Config().Scheduler
	return map[string]struct {
		spec string
		run  func()
	}{
		JobReconcileStock:       {cfg.ReconcileStock, s.jobs.ReconcileStock},
		JobReportOverdueReturns: {cfg.ReportOverdueReturn, s.jobs.ReportOverdueReturns},
		JobHealthProbe:          {cfg.HealthProbe, s.jobs.HealthProbe},
	}
}

// registerJobs registers the selected jobs with the cron scheduler
func (s *Scheduler) registerJobs(only []string) {
	wanted := map[string]bool{}
	for _, name := range only {
		wanted[name] = true
	}

	registered := 0
	for name, job := range s.specs() {
		if len(wanted) > 0 && !wanted[name] {
			continue
		}
		if job.spec == "" {
			logger.Info("Job has no schedule, skipping", "job", name)
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			logger.Error("Failed to register job", "job", name, "spec", job.spec, "error", err)
			continue
		}
		registered++
	}

	logger.Info("Cron jobs registered", "count", registered)
}

// RunOnce runs the named job immediately. "all" runs every job.
func (s *Scheduler) RunOnce(name string) bool {
	if name == "all" {
		s.jobs.RunAll()
		return true
	}
	job, ok := s.specs()[name]
	if !ok {
		return false
	}
	job.run()
	return true
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}

// JobNames lists the jobs RunOnce understands
func JobNames() []string {
	return []string{JobReconcileStock, JobReportOverdueReturns, JobHealthProbe, "all"}
}
