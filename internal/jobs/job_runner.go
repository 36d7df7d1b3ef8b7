package jobs

import (
	"context"
	"time"

	"motorent-backend/internal/config"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Reservation service.ReservationService
	Reconcile   service.ReconcileService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		now:      time.Now,
	}
}

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

	logger.Info("Starting job", "job", jobName)
	start := jr.now()
	if err := jobFunc(context.Background()); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.ReconcileReservations()
	jr.SendReturnReminders()
}
