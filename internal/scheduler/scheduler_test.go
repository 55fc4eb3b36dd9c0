package scheduler

import (
	"testing"
	"time"

	"doorcars-storefront/internal/config"
	"doorcars-storefront/internal/jobs"

	"github.com/stretchr/testify/assert"
)

type noopOrders struct{}

func (noopOrders) ForgetConsumedBefore(time.Time) int { return 0 }

func schedulerConfig() *config.Config {
	return &config.Config{Scheduler: config.SchedulerConfig{
		ExpireCheckoutAttempts: "0 */5 * * * *",
		PurgeExpiredSessions:   "0 0 3 * * *",
		PruneQuotes:            "0 */15 * * * *",
	}}
}

func TestNewScheduler_ServerRegistersAllJobs(t *testing.T) {
	runner := jobs.NewJobRunner(nil, &jobs.Services{Orders: noopOrders{}}, schedulerConfig())
	s := NewScheduler(runner)
	assert.Equal(t, 3, s.Entries())
}

func TestNewScheduler_CronjobSkipsMemoryJobs(t *testing.T) {
	runner := jobs.NewJobRunner(nil, &jobs.Services{}, schedulerConfig())
	s := NewScheduler(runner)
	assert.Equal(t, 2, s.Entries())
}

func TestNewScheduler_BadSpecIsSkipped(t *testing.T) {
	cfg := schedulerConfig()
	cfg.Scheduler.PurgeExpiredSessions = "every night"
	s := NewScheduler(jobs.NewJobRunner(nil, &jobs.Services{}, cfg))
	assert.Equal(t, 1, s.Entries())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(jobs.NewJobRunner(nil, &jobs.Services{}, schedulerConfig()))
	s.Start()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
