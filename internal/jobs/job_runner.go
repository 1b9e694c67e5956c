package jobs

import (
	"context"
	"fmt"
	"time"

	"troop-backend/internal/config"
	"troop-backend/internal/identity"
	"troop-backend/internal/logger"
	"troop-backend/internal/metrics"
	"troop-backend/internal/repository"
	"troop-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	repos    *Repositories
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Repositories holds the stores jobs read directly
type Repositories struct {
	Users    repository.UserRepository
	Requests repository.RegistrationRequestRepository
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Auth   service.AuthService
	Emails service.EmailQueueService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(repos *Repositories, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		repos:    repos,
		services: services,
		config:   cfg,
		now:      time.Now,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// jobContext carries the system principal so webhook calls authenticate with
// the shared token alone.
func jobContext() context.Context {
	return identity.WithPrincipal(context.Background(), identity.SystemPrincipal)
}

// runWithRecovery wraps job execution with panic recovery and metrics
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			metrics.JobRuns.WithLabelValues(jobName, "panic").Inc()
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
		metrics.JobDuration.WithLabelValues(jobName).Observe(time.Since(start).Seconds())
	}()

	logger.Info("Starting job", "job", jobName)
	if err = jobFunc(jobContext()); err != nil {
		metrics.JobRuns.WithLabelValues(jobName, "error").Inc()
		logger.Error("Job failed", "job", jobName, "error", err)
		return err
	}
	metrics.JobRuns.WithLabelValues(jobName, "ok").Inc()
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
	return nil
}

// RunAll runs every job once (for manual execution). It returns the first error.
func (jr *JobRunner) RunAll() error {
	var first error
	for _, run := range []func() error{
		jr.RunReconcileApprovedRequests,
		jr.RunSendPendingDigest,
		jr.RunPurgeRejectedRequests,
	} {
		if err := run(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Run runs one job by name.
func (jr *JobRunner) Run(name string) error {
	switch name {
	case "SendPendingDigest":
		return jr.RunSendPendingDigest()
	case "ReconcileApprovedRequests":
		return jr.RunReconcileApprovedRequests()
	case "PurgeRejectedRequests":
		return jr.RunPurgeRejectedRequests()
	case "all":
		return jr.RunAll()
	}
	return fmt.Errorf("unknown job %q", name)
}
