package jobs

import (
	"context"

	"doorcars-storefront/internal/logger"
)

// PurgeExpiredSessions deletes sessions past their expiry together with the
// sealed tokens they hold.
func (jr *JobRunner) PurgeExpiredSessions() {
	jr.runWithRecovery("PurgeExpiredSessions", func() {
		n, err := jr.services.Sessions.PurgeExpired(context.Background())
		if err != nil {
			logger.Error("Failed to purge expired sessions", "error", err)
			return
		}
		logger.Info("Purged expired sessions", "count", n)
	})
}
