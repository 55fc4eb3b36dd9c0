package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository"
	"doorcars-storefront/internal/repository/rest"

	"github.com/google/uuid"
)

// MsgUnverified prefixes the reason of a charge the remote API did not confirm.
const MsgUnverified = "Payment captured but not verified"

// CheckoutIntent is everything the orchestrator needs for one attempt. It is
// only built after the window, plan and gate checks have passed.
type CheckoutIntent struct {
	SessionID string
	Car       domain.Car
	Window    domain.RentalWindow
	Plan      domain.PricingTier
	Locations domain.LocationSelection
}

type paymentOrchestrator struct {
	bookingRepo  repository.BookingRepository
	attemptRepo  repository.CheckoutAttemptRepository
	sessions     SessionService
	gateway      PaymentGateway
	alerter      SupportAlerter
	merchantName string

	// serialises the open-attempt check with attempt creation
	openMu sync.Mutex
}

func NewPaymentOrchestrator(
	bookingRepo repository.BookingRepository,
	attemptRepo repository.CheckoutAttemptRepository,
	sessions SessionService,
	gateway PaymentGateway,
	alerter SupportAlerter,
	merchantName string,
) PaymentOrchestrator {
	return &paymentOrchestrator{
		bookingRepo:  bookingRepo,
		attemptRepo:  attemptRepo,
		sessions:     sessions,
		gateway:      gateway,
		alerter:      alerter,
		merchantName: merchantName,
	}
}

// Pay runs one attempt through
// IDLE → ORDER_REQUESTED → AWAITING_GATEWAY_RESULT → VERIFYING → CONFIRMED | FAILED.
//
// Every attempt creates its own order. Nothing is retried: a failed order
// request or verification ends the attempt and the user has to book again.
func (o *paymentOrchestrator) Pay(ctx context.Context, in CheckoutIntent) *domain.BookingOutcome {
	token, err := o.sessions.Token(ctx, in.SessionID)
	if err != nil {
		if isSessionError(err) {
			return domain.Rejected(domain.FailureTrust, MsgSignIn)
		}
		logger.Error("Failed to read session token", "session_id", in.SessionID, "error", err)
		return domain.Rejected(domain.FailureTransient, "Could not start checkout, please try again")
	}

	attempt, err := o.open(ctx, in)
	if err != nil {
		if errors.Is(err, domain.ErrCheckoutInFlight) {
			return domain.Rejected(domain.FailureValidation, err.Error())
		}
		logger.Error("Failed to open checkout attempt", "session_id", in.SessionID, "car_id", in.Car.ID, "error", err)
		return domain.Rejected(domain.FailureTransient, "Could not start checkout, please try again")
	}
	log := logger.WithAttempt(attempt.ID, in.Car.ID)
	log.Info("Checkout started", "tier_id", in.Plan.ID, "amount", in.Plan.FinalPrice)

	order, err := o.bookingRepo.CreateOrder(ctx, token, domain.OrderRequest{
		CarID:          in.Car.ID,
		StartDate:      in.Window.StartParam(),
		EndDate:        in.Window.EndParam(),
		Amount:         in.Plan.FinalPrice,
		TierID:         in.Plan.ID,
		PlanName:       in.Plan.Name,
		PickupLocation: in.Locations.Pickup,
		DropLocation:   in.Locations.Drop,
	})
	if err != nil {
		msg := rest.MessageOf(err)
		log.Warn("Order creation failed", "error", err)
		o.fail(ctx, log, attempt, domain.PaymentStateCancelled, domain.FailureTransient, msg)
		return withAttempt(domain.Rejected(domain.FailureTransient, msg), attempt.ID)
	}

	attempt.OrderID = order.OrderID
	attempt.Currency = order.Currency
	o.advance(ctx, log, attempt, domain.PaymentStateAwaitingGatewayResult)

	result, err := o.gateway.Checkout(ctx, domain.CheckoutOptions{
		AttemptID:   attempt.ID,
		Key:         order.GatewayKey,
		Amount:      order.Amount,
		Currency:    order.Currency,
		OrderID:     order.OrderID,
		Name:        o.merchantName,
		Description: fmt.Sprintf("Booking: %s (%s)", in.Car.DisplayName(), in.Plan.Name),
	})
	if err != nil {
		return o.gatewayFailed(ctx, log, attempt, err)
	}

	o.advance(ctx, log, attempt, domain.PaymentStateVerifying)

	// The charge may already be captured, so verification runs to completion
	// even when the caller goes away.
	vctx := context.WithoutCancel(ctx)
	res, err := o.bookingRepo.VerifyPayment(vctx, token, domain.VerificationRequest{
		RazorpayOrderID:   result.GatewayOrderID,
		RazorpayPaymentID: result.GatewayPaymentID,
		RazorpaySignature: result.GatewaySignature,
		BookingData: domain.BookingData{
			CarID:      in.Car.ID,
			StartDate:  in.Window.StartParam(),
			EndDate:    in.Window.EndParam(),
			TotalPrice: in.Plan.FinalPrice,
			Address:    in.Car.City,
			Plan: domain.PlanSummary{
				Name:          in.Plan.Name,
				IncludedKm:    in.Plan.IncludedKm,
				ExtraKmCharge: in.Plan.ExtraKmCharge,
			},
		},
	})
	if err != nil || !res.Success || res.BookingID == "" {
		backendMsg := "Payment verification failed"
		if err != nil {
			backendMsg = rest.MessageOf(err)
		} else if res.Message != "" {
			backendMsg = res.Message
		}
		reason := fmt.Sprintf("%s: %s. Please contact support with order %s", MsgUnverified, backendMsg, order.OrderID)
		log.Error("Payment verification failed", "order_id", order.OrderID, "payment_id", result.GatewayPaymentID, "reason", backendMsg, "error", err)
		o.fail(vctx, log, attempt, domain.PaymentStateFailed, domain.FailureUnverified, reason)
		o.alert(vctx, log, in, attempt, result, backendMsg)
		return withAttempt(domain.Rejected(domain.FailureUnverified, reason), attempt.ID)
	}

	attempt.BookingID = res.BookingID
	o.advance(vctx, log, attempt, domain.PaymentStateConfirmed)
	log.Info("Booking confirmed", "booking_id", res.BookingID)
	return domain.Confirmed(attempt.ID, res.BookingID)
}

// open creates the attempt unless one is already in flight for the same
// session, car and window.
func (o *paymentOrchestrator) open(ctx context.Context, in CheckoutIntent) (*domain.CheckoutAttempt, error) {
	o.openMu.Lock()
	defer o.openMu.Unlock()

	busy, err := o.attemptRepo.HasOpenAttempt(ctx, in.SessionID, in.Car.ID, in.Window)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, domain.ErrCheckoutInFlight
	}

	attempt := &domain.CheckoutAttempt{
		ID:        uuid.NewString(),
		SessionID: in.SessionID,
		CarID:     in.Car.ID,
		Window:    in.Window,
		TierID:    in.Plan.ID,
		PlanName:  in.Plan.Name,
		Amount:    in.Plan.FinalPrice,
		State:     domain.PaymentStateIdle,
	}
	if !domain.CanTransition(attempt.State, domain.PaymentStateOrderRequested) {
		return nil, domain.ErrInvalidTransition
	}
	attempt.State = domain.PaymentStateOrderRequested
	if err := o.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

func (o *paymentOrchestrator) gatewayFailed(ctx context.Context, log *slog.Logger, attempt *domain.CheckoutAttempt, err error) *domain.BookingOutcome {
	switch {
	case errors.Is(err, domain.ErrPaymentDismissed):
		log.Info("Payment window dismissed", "order_id", attempt.OrderID)
		o.fail(ctx, log, attempt, domain.PaymentStateCancelled, "", "")
		return domain.Cancelled(attempt.ID)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Info("Checkout abandoned", "order_id", attempt.OrderID)
		o.fail(ctx, log, attempt, domain.PaymentStateAbandoned, "", "")
		return domain.Cancelled(attempt.ID)
	default:
		log.Warn("Payment failed at gateway", "order_id", attempt.OrderID, "error", err)
		o.fail(ctx, log, attempt, domain.PaymentStateFailed, domain.FailureGateway, err.Error())
		return withAttempt(domain.Rejected(domain.FailureGateway, err.Error()), attempt.ID)
	}
}

// advance moves the attempt forward and persists it. A persistence failure
// is logged but does not stop the payment.
func (o *paymentOrchestrator) advance(ctx context.Context, log *slog.Logger, attempt *domain.CheckoutAttempt, to domain.PaymentState) {
	if !domain.CanTransition(attempt.State, to) {
		log.Error("Refusing payment state transition", "from", attempt.State, "to", to)
		return
	}
	log.Debug("Payment state transition", "from", attempt.State, "to", to)
	attempt.State = to
	if err := o.attemptRepo.Update(context.WithoutCancel(ctx), attempt); err != nil {
		log.Error("Failed to persist checkout attempt", "state", to, "error", err)
	}
}

func (o *paymentOrchestrator) fail(ctx context.Context, log *slog.Logger, attempt *domain.CheckoutAttempt, to domain.PaymentState, kind domain.FailureKind, reason string) {
	attempt.FailureKind = kind
	attempt.FailureReason = reason
	o.advance(ctx, log, attempt, to)
}

func (o *paymentOrchestrator) alert(ctx context.Context, log *slog.Logger, in CheckoutIntent, attempt *domain.CheckoutAttempt, result *domain.PaymentResult, reason string) {
	p := domain.UnverifiedPayment{
		AttemptID: attempt.ID,
		SessionID: in.SessionID,
		CarID:     in.Car.ID,
		OrderID:   attempt.OrderID,
		PaymentID: result.GatewayPaymentID,
		Amount:    in.Plan.FinalPrice,
		Reason:    reason,
	}
	if session, err := o.sessions.Get(ctx, in.SessionID); err == nil {
		p.UserEmail = session.Profile.Email
	}
	if err := o.alerter.UnverifiedPayment(ctx, p); err != nil {
		log.Error("Failed to raise support alert", "order_id", attempt.OrderID, "error", err)
	}
}

func withAttempt(out *domain.BookingOutcome, attemptID string) *domain.BookingOutcome {
	out.AttemptID = attemptID
	return out
}
