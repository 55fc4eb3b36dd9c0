package jobs

import (
	"time"

	"doorcars-storefront/internal/config"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository"
	"doorcars-storefront/internal/service"
)

// ConsumedOrders is the gateway hub's memory of order ids it has accepted.
type ConsumedOrders interface {
	ForgetConsumedBefore(t time.Time) int
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	attempts repository.CheckoutAttemptRepository
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Services holds the service dependencies needed by jobs. Quotes and Orders
// live in the server's memory and are nil in the standalone cronjob.
type Services struct {
	Sessions service.SessionService
	Alerter  service.SupportAlerter
	Quotes   service.QuoteService
	Orders   ConsumedOrders
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(attempts repository.CheckoutAttemptRepository, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		attempts: attempts,
		services: services,
		config:   cfg,
		now:      time.Now,
	}
}

// Config returns the configuration the jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// InMemory reports whether the runner can reach the server's in-memory state
func (jr *JobRunner) InMemory() bool {
	return jr.services.Quotes != nil || jr.services.Orders != nil
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.ExpireCheckoutAttempts()
	jr.PurgeExpiredSessions()
	if jr.InMemory() {
		jr.PruneQuotes()
	}
}
