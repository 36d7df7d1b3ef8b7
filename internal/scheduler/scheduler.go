package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"motorent-backend/internal/jobs"
	"motorent-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	if _, err := s.cron.AddFunc(cfg.ReconcileReservations, s.jobs.ReconcileReservations); err != nil {
		logger.Error("Failed to register ReconcileReservations job", "schedule", cfg.ReconcileReservations, "error", err)
		return err
	}

	if _, err := s.cron.AddFunc(cfg.SendReturnReminders, s.jobs.SendReturnReminders); err != nil {
		logger.Error("Failed to register SendReturnReminders job", "schedule", cfg.SendReturnReminders, "error", err)
		return err
	}

	logger.Info("All cron jobs registered successfully", "count", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if jobs are registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
