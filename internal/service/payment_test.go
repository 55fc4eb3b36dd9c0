package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/repository/rest"
	"doorcars-storefront/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	bookings *MockBookingRepo
	attempts *MockAttemptRepo
	sessions *MockSessionService
	gateway  *MockGateway
	alerter  *MockAlerter
	svc      service.PaymentOrchestrator

	mu     sync.Mutex
	states []domain.PaymentState
	last   domain.CheckoutAttempt
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		bookings: new(MockBookingRepo),
		attempts: new(MockAttemptRepo),
		sessions: new(MockSessionService),
		gateway:  new(MockGateway),
		alerter:  new(MockAlerter),
	}
	f.svc = service.NewPaymentOrchestrator(f.bookings, f.attempts, f.sessions, f.gateway, f.alerter, "Door Cars")

	record := func(args mock.Arguments) {
		a := args.Get(1).(*domain.CheckoutAttempt)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.states = append(f.states, a.State)
		f.last = *a
	}
	f.sessions.On("Token", mock.Anything, "s-1").Return("jwt-token", nil).Maybe()
	f.attempts.On("HasOpenAttempt", mock.Anything, "s-1", "car-1", mock.Anything).Return(false, nil).Maybe()
	f.attempts.On("Create", mock.Anything, mock.Anything).Run(record).Return(nil).Maybe()
	f.attempts.On("Update", mock.Anything, mock.Anything).Run(record).Return(nil).Maybe()
	return f
}

func (f *paymentFixture) stateLog() []domain.PaymentState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.PaymentState(nil), f.states...)
}

func intent() service.CheckoutIntent {
	return service.CheckoutIntent{
		SessionID: "s-1",
		Car:       carWithLocations(),
		Window:    window(10, 24),
		Plan:      standardTiers()[1],
		Locations: domain.LocationSelection{
			Pickup: &domain.LocationChoice{Name: "Station", Address: "Pune Station"},
			Drop:   &domain.LocationChoice{Name: "Airport", Address: "Pune Airport"},
		},
	}
}

func order() *domain.PaymentOrder {
	return &domain.PaymentOrder{OrderID: "order_abc", Amount: 330400, Currency: "INR", GatewayKey: "rzp_test_key"}
}

func gatewayResult() *domain.PaymentResult {
	return &domain.PaymentResult{GatewayOrderID: "order_abc", GatewayPaymentID: "pay_123", GatewaySignature: "sig"}
}

func TestPaymentOrchestrator_HappyPath(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	in := intent()

	f.bookings.On("CreateOrder", ctx, "jwt-token", mock.MatchedBy(func(r domain.OrderRequest) bool {
		return r.CarID == "car-1" && r.Amount == 3304 && r.TierID == domain.TierID400 &&
			r.PlanName == "400 km" && r.StartDate == "2026-11-02T10:00" && r.EndDate == "2026-11-03T10:00" &&
			r.PickupLocation.Name == "Station" && r.DropLocation.Name == "Airport"
	})).Return(order(), nil)
	f.gateway.On("Checkout", ctx, mock.MatchedBy(func(o domain.CheckoutOptions) bool {
		return o.OrderID == "order_abc" && o.Amount == 330400 && o.Currency == "INR" && o.Key == "rzp_test_key" &&
			o.Name == "Door Cars" && o.Description == "Booking: Maruti Swift (400 km)" && o.AttemptID != ""
	})).Return(gatewayResult(), nil)
	f.bookings.On("VerifyPayment", mock.Anything, "jwt-token", mock.MatchedBy(func(r domain.VerificationRequest) bool {
		return r.RazorpayOrderID == "order_abc" && r.RazorpayPaymentID == "pay_123" && r.RazorpaySignature == "sig" &&
			r.BookingData.CarID == "car-1" && r.BookingData.TotalPrice == 3304 && r.BookingData.Address == "Pune" &&
			r.BookingData.Plan.IncludedKm == 400
	})).Return(&domain.VerificationResult{Success: true, BookingID: "bk-9"}, nil)

	out := f.svc.Pay(ctx, in)

	assert.Equal(t, domain.OutcomeConfirmed, out.Status)
	assert.Equal(t, "bk-9", out.BookingID)
	assert.NotEmpty(t, out.AttemptID)
	assert.Equal(t, "/booking/success?bookingId=bk-9", out.SuccessPath())
	assert.Equal(t, []domain.PaymentState{
		domain.PaymentStateOrderRequested,
		domain.PaymentStateAwaitingGatewayResult,
		domain.PaymentStateVerifying,
		domain.PaymentStateConfirmed,
	}, f.stateLog())
	assert.Equal(t, "bk-9", f.last.BookingID)
	f.alerter.AssertNotCalled(t, "UnverifiedPayment", mock.Anything, mock.Anything)
}

func TestPaymentOrchestrator_OrderFailure(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.bookings.On("CreateOrder", ctx, "jwt-token", mock.Anything).
		Return(nil, &rest.APIError{StatusCode: http.StatusBadRequest, Message: "Car is already booked for these dates"})

	out := f.svc.Pay(ctx, intent())

	assert.Equal(t, domain.OutcomeRejected, out.Status)
	assert.Equal(t, domain.FailureTransient, out.Kind)
	assert.Equal(t, "Car is already booked for these dates", out.Reason)
	assert.Equal(t, []domain.PaymentState{domain.PaymentStateOrderRequested, domain.PaymentStateCancelled}, f.stateLog())
	f.gateway.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
	f.bookings.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentOrchestrator_Dismissed(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.bookings.On("CreateOrder", ctx, "jwt-token", mock.Anything).Return(order(), nil)
	f.gateway.On("Checkout", ctx, mock.Anything).Return(nil, domain.ErrPaymentDismissed)

	out := f.svc.Pay(ctx, intent())

	assert.Equal(t, domain.OutcomeCancelled, out.Status)
	assert.Empty(t, out.Reason)
	assert.Equal(t, domain.PaymentStateCancelled, f.last.State)
	f.bookings.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentOrchestrator_CallerGoesAway(t *testing.T) {
	f := newPaymentFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.bookings.On("CreateOrder", ctx, "jwt-token", mock.Anything).Return(order(), nil)
	f.gateway.On("Checkout", ctx, mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(nil, context.Canceled)

	out := f.svc.Pay(ctx, intent())

	assert.Equal(t, domain.OutcomeCancelled, out.Status)
	assert.Equal(t, domain.PaymentStateAbandoned, f.last.State)
}

func TestPaymentOrchestrator_Declined(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.bookings.On("CreateOrder", ctx, "jwt-token", mock.Anything).Return(order(), nil)
	f.gateway.On("Checkout", ctx, mock.Anything).
		Return(nil, fmt.Errorf("%w: card declined by issuer", domain.ErrPaymentDeclined))

	out := f.svc.Pay(ctx, intent())

	assert.Equal(t, domain.OutcomeRejected, out.Status)
	assert.Equal(t, domain.FailureGateway, out.Kind)
	assert.Contains(t, out.Reason, "card declined by issuer")
	assert.Equal(t, domain.PaymentStateFailed, f.last.State)
	f.bookings.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentOrchestrator_CapturedButNotVerified(t *testing.T) {
	cases := []struct {
		name    string
		result  *domain.VerificationResult
		err     error
		message string
	}{
		{"Signature mismatch", &domain.VerificationResult{Success: false, Message: "Invalid signature"}, nil, "Invalid signature"},
		{"Backend unreachable", nil, errors.New("dial tcp: i/o timeout"), "dial tcp: i/o timeout"},
		{"Success without booking", &domain.VerificationResult{Success: true}, nil, "Payment verification failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPaymentFixture(t)
			ctx := context.Background()
			f.bookings.On("CreateOrder", ctx, "jwt-token", mock.Anything).Return(order(), nil)
			f.gateway.On("Checkout", ctx, mock.Anything).Return(gatewayResult(), nil)
			f.bookings.On("VerifyPayment", mock.Anything, "jwt-token", mock.Anything).Return(tc.result, tc.err)
			f.sessions.On("Get", mock.Anything, "s-1").
				Return(&domain.Session{ID: "s-1", Profile: domain.User{Email: "asha@example.com"}}, nil)
			f.alerter.On("UnverifiedPayment", mock.Anything, mock.MatchedBy(func(p domain.UnverifiedPayment) bool {
				return p.OrderID == "order_abc" && p.PaymentID == "pay_123" && p.UserEmail == "asha@example.com" &&
					p.Reason == tc.message
			})).Return(nil)

			out := f.svc.Pay(ctx, intent())

			assert.Equal(t, domain.OutcomeRejected, out.Status)
			assert.Equal(t, domain.FailureUnverified, out.Kind)
			assert.Contains(t, out.Reason, service.MsgUnverified)
			assert.Contains(t, out.Reason, tc.message)
			assert.Contains(t, out.Reason, "order_abc")
			assert.Equal(t, domain.PaymentStateFailed, f.last.State)
			assert.Equal(t, domain.FailureUnverified, f.last.FailureKind)
			f.alerter.AssertExpectations(t)
		})
	}
}

func TestPaymentOrchestrator_VerificationOutlivesCaller(t *testing.T) {
	f := newPaymentFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.bookings.On("CreateOrder", ctx, "jwt-token", mock.Anything).Return(order(), nil)
	// The caller disconnects right after the gateway answered.
	f.gateway.On("Checkout", ctx, mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(gatewayResult(), nil)
	f.bookings.On("VerifyPayment", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), "jwt-token", mock.Anything).
		Return(&domain.VerificationResult{Success: true, BookingID: "bk-9"}, nil)

	out := f.svc.Pay(ctx, intent())

	assert.Equal(t, domain.OutcomeConfirmed, out.Status)
	assert.Equal(t, "bk-9", out.BookingID)
}

func TestPaymentOrchestrator_CheckoutInFlight(t *testing.T) {
	f := newPaymentFixture(t)
	f.attempts.ExpectedCalls = nil
	ctx := context.Background()
	f.sessions.On("Token", ctx, "s-1").Return("jwt-token", nil)
	f.attempts.On("HasOpenAttempt", ctx, "s-1", "car-1", mock.Anything).Return(true, nil)

	out := f.svc.Pay(ctx, intent())

	assert.Equal(t, domain.OutcomeRejected, out.Status)
	assert.Equal(t, domain.FailureValidation, out.Kind)
	assert.Equal(t, domain.ErrCheckoutInFlight.Error(), out.Reason)
	f.bookings.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentOrchestrator_SessionGone(t *testing.T) {
	f := newPaymentFixture(t)
	f.sessions.ExpectedCalls = nil
	ctx := context.Background()
	f.sessions.On("Token", ctx, "s-1").Return("", domain.ErrSessionExpired)

	out := f.svc.Pay(ctx, intent())

	require.Equal(t, domain.OutcomeRejected, out.Status)
	assert.Equal(t, domain.FailureTrust, out.Kind)
	assert.Equal(t, service.MsgSignIn, out.Reason)
	f.attempts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
