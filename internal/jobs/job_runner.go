package jobs

import (
	"time"

	"payhub-backend/internal/config"
	"payhub-backend/internal/logger"
	"payhub-backend/internal/repository"
	"payhub-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	repos    repository.Repositories
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Ledger service.LedgerService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(repos repository.Repositories, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		repos:    repos,
		services: services,
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Config returns the configuration the jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	start := time.Now()
	jobFunc()
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.AuditLedgerStatuses()
	jr.PurgeIdempotencyRecords()
}
