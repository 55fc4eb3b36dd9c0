package jobs

import (
	"context"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/service"
)

const stuckVerificationReason = service.MsgUnverified + ": verification did not complete. Please contact support"

// ExpireCheckoutAttempts marks attempts that never got past the order or
// gateway stage within the attempt TTL as ABANDONED. A live checkout gives
// up at the gateway timeout, which the TTL always exceeds. Attempts stuck in
// VERIFYING past the longer verifying TTL are failed as unverified and
// reported to support, since the charge may have gone through.
func (jr *JobRunner) ExpireCheckoutAttempts() {
	jr.runWithRecovery("ExpireCheckoutAttempts", func() {
		ctx := context.Background()
		now := jr.now()
		cutoff := now.Add(-jr.config.AttemptTTL())

		n, err := jr.attempts.ExpireStale(ctx, cutoff)
		switch {
		case err != nil:
			logger.Error("Failed to expire checkout attempts", "error", err)
		case n > 0:
			logger.Warn("Abandoned stale checkout attempts", "count", n, "cutoff", cutoff)
		default:
			logger.Info("No stale checkout attempts")
		}

		jr.failStuckVerifications(ctx, now.Add(-jr.config.VerifyingTTL()))
	})
}

func (jr *JobRunner) failStuckVerifications(ctx context.Context, cutoff time.Time) {
	failed, err := jr.attempts.FailStuckVerifying(ctx, cutoff, stuckVerificationReason)
	if err != nil {
		logger.Error("Failed to fail stuck verifications", "error", err)
		return
	}
	for _, a := range failed {
		logger.Error("Verification never completed", "attempt_id", a.ID, "order_id", a.OrderID, "session_id", a.SessionID)
		if jr.services.Alerter == nil {
			continue
		}
		err := jr.services.Alerter.UnverifiedPayment(ctx, domain.UnverifiedPayment{
			AttemptID: a.ID,
			SessionID: a.SessionID,
			CarID:     a.CarID,
			OrderID:   a.OrderID,
			Amount:    a.Amount,
			Reason:    a.FailureReason,
		})
		if err != nil {
			logger.Error("Failed to alert support", "attempt_id", a.ID, "error", err)
		}
	}
}

// PruneQuotes drops applied quotes older than the retention window along with
// the hub's record of order ids settled before it.
func (jr *JobRunner) PruneQuotes() {
	jr.runWithRecovery("PruneQuotes", func() {
		cutoff := jr.now().Add(-jr.config.QuoteRetention())

		quotes, orders := 0, 0
		if jr.services.Quotes != nil {
			quotes = jr.services.Quotes.Prune(cutoff)
		}
		if jr.services.Orders != nil {
			orders = jr.services.Orders.ForgetConsumedBefore(cutoff)
		}
		logger.Info("Pruned checkout memory", "quotes", quotes, "orders", orders)
	})
}
