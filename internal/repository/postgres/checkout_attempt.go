package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository"
)

type checkoutAttemptRepository struct {
	db *sql.DB
}

func NewCheckoutAttemptRepository(db *sql.DB) repository.CheckoutAttemptRepository {
	return &checkoutAttemptRepository{db: db}
}

func (r *checkoutAttemptRepository) Create(ctx context.Context, a *domain.CheckoutAttempt) error {
	query := `INSERT INTO checkout_attempts (id, session_id, car_id, start_at, end_at, tier_id, plan_name, amount, state, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	now := time.Now().UTC()
	a.CreatedOn = now
	a.UpdatedOn = now
	logger.DatabaseCall("insert", "checkout_attempts", "attempt_id", a.ID, "state", a.State)
	res, err := r.db.ExecContext(ctx, query, a.ID, a.SessionID, a.CarID, a.Window.Start, a.Window.End,
		string(a.TierID), a.PlanName, a.Amount, string(a.State), a.CreatedOn, a.UpdatedOn)
	logger.DatabaseResult("insert", rowsAffected(res), err, "table", "checkout_attempts")
	return err
}

func (r *checkoutAttemptRepository) GetByID(ctx context.Context, id string) (*domain.CheckoutAttempt, error) {
	a := &domain.CheckoutAttempt{}
	var tierID, state string
	var orderID, currency, bookingID, failureKind, failureReason sql.NullString
	query := `SELECT id, session_id, car_id, start_at, end_at, tier_id, plan_name, amount, state,
	                 order_id, currency, booking_id, failure_kind, failure_reason, created_on, updated_on
	          FROM checkout_attempts WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.SessionID, &a.CarID, &a.Window.Start, &a.Window.End, &tierID, &a.PlanName, &a.Amount, &state,
		&orderID, &currency, &bookingID, &failureKind, &failureReason, &a.CreatedOn, &a.UpdatedOn,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	a.TierID = domain.TierID(tierID)
	a.State = domain.PaymentState(state)
	a.OrderID = orderID.String
	a.Currency = currency.String
	a.BookingID = bookingID.String
	a.FailureKind = domain.FailureKind(failureKind.String)
	a.FailureReason = failureReason.String
	return a, nil
}

func (r *checkoutAttemptRepository) Update(ctx context.Context, a *domain.CheckoutAttempt) error {
	query := `UPDATE checkout_attempts
	          SET state=$1, order_id=$2, currency=$3, booking_id=$4, failure_kind=$5, failure_reason=$6, updated_on=$7
	          WHERE id=$8`
	a.UpdatedOn = time.Now().UTC()
	logger.DatabaseCall("update", "checkout_attempts", "attempt_id", a.ID, "state", a.State)
	res, err := r.db.ExecContext(ctx, query, string(a.State), nullString(a.OrderID), nullString(a.Currency),
		nullString(a.BookingID), nullString(string(a.FailureKind)), nullString(a.FailureReason), a.UpdatedOn, a.ID)
	n := rowsAffected(res)
	logger.DatabaseResult("update", n, err, "table", "checkout_attempts")
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

// HasOpenAttempt reports whether the session already has an attempt in flight
// for the same car and window.
func (r *checkoutAttemptRepository) HasOpenAttempt(ctx context.Context, sessionID, carID string, window domain.RentalWindow) (bool, error) {
	query := `SELECT EXISTS (
	              SELECT 1 FROM checkout_attempts
	              WHERE session_id = $1 AND car_id = $2 AND start_at = $3 AND end_at = $4
	                AND state IN ($5, $6, $7)
	          )`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, sessionID, carID, window.Start, window.End,
		string(domain.PaymentStateOrderRequested),
		string(domain.PaymentStateAwaitingGatewayResult),
		string(domain.PaymentStateVerifying),
	).Scan(&exists)
	return exists, err
}

// ExpireStale marks attempts that never left the order or gateway stage as
// abandoned. Attempts already verifying are left alone: the charge may have
// gone through and only the remote API can settle them.
func (r *checkoutAttemptRepository) ExpireStale(ctx context.Context, before time.Time) (int64, error) {
	query := `UPDATE checkout_attempts
	          SET state = $1, updated_on = NOW()
	          WHERE state IN ($2, $3) AND updated_on < $4`
	logger.DatabaseCall("update", "checkout_attempts", "before", before)
	res, err := r.db.ExecContext(ctx, query,
		string(domain.PaymentStateAbandoned),
		string(domain.PaymentStateOrderRequested),
		string(domain.PaymentStateAwaitingGatewayResult),
		before,
	)
	n := rowsAffected(res)
	logger.DatabaseResult("update", n, err, "table", "checkout_attempts")
	return n, err
}

// FailStuckVerifying fails attempts whose verification never recorded an
// outcome, either because the process died mid-verify or the final write was
// lost. They are marked UNVERIFIED and returned so support can be told.
func (r *checkoutAttemptRepository) FailStuckVerifying(ctx context.Context, before time.Time, reason string) ([]domain.CheckoutAttempt, error) {
	query := `UPDATE checkout_attempts
	          SET state = $1, failure_kind = $2, failure_reason = $3, updated_on = NOW()
	          WHERE state = $4 AND updated_on < $5
	          RETURNING id, session_id, car_id, order_id, amount`
	logger.DatabaseCall("update", "checkout_attempts", "state", domain.PaymentStateVerifying, "before", before)
	rows, err := r.db.QueryContext(ctx, query,
		string(domain.PaymentStateFailed),
		string(domain.FailureUnverified),
		reason,
		string(domain.PaymentStateVerifying),
		before,
	)
	if err != nil {
		logger.DatabaseResult("update", 0, err, "table", "checkout_attempts")
		return nil, err
	}
	defer rows.Close()

	var failed []domain.CheckoutAttempt
	for rows.Next() {
		var orderID sql.NullString
		a := domain.CheckoutAttempt{
			State:         domain.PaymentStateFailed,
			FailureKind:   domain.FailureUnverified,
			FailureReason: reason,
		}
		if err := rows.Scan(&a.ID, &a.SessionID, &a.CarID, &orderID, &a.Amount); err != nil {
			return nil, err
		}
		a.OrderID = orderID.String
		failed = append(failed, a)
	}
	err = rows.Err()
	logger.DatabaseResult("update", int64(len(failed)), err, "table", "checkout_attempts")
	return failed, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
