package jobs

import (
	"context"
	"testing"
	"time"

	"doorcars-storefront/internal/config"
	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/repository"
	"doorcars-storefront/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockAttempts struct {
	mock.Mock
	repository.CheckoutAttemptRepository
}

func (m *mockAttempts) ExpireStale(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAttempts) FailStuckVerifying(ctx context.Context, before time.Time, reason string) ([]domain.CheckoutAttempt, error) {
	args := m.Called(ctx, before, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CheckoutAttempt), args.Error(1)
}

type mockSessions struct {
	mock.Mock
	service.SessionService
}

func (m *mockSessions) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockQuotes struct {
	mock.Mock
	service.QuoteService
}

func (m *mockQuotes) Prune(before time.Time) int {
	return m.Called(before).Int(0)
}

type mockAlerter struct {
	mock.Mock
}

func (m *mockAlerter) UnverifiedPayment(ctx context.Context, p domain.UnverifiedPayment) error {
	return m.Called(ctx, p).Error(0)
}

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) ForgetConsumedBefore(t time.Time) int {
	return m.Called(t).Int(0)
}

var fixedNow = time.Date(2026, 11, 2, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{Checkout: config.CheckoutConfig{AttemptTTLMinutes: 30, VerifyingTTLMinutes: 60, QuoteRetentionMinutes: 60}}
}

func newRunner(attempts *mockAttempts, services *Services) *JobRunner {
	jr := NewJobRunner(attempts, services, testConfig())
	jr.now = func() time.Time { return fixedNow }
	return jr
}

func TestExpireCheckoutAttempts(t *testing.T) {
	attempts := new(mockAttempts)
	attempts.On("ExpireStale", mock.Anything, fixedNow.Add(-30*time.Minute)).Return(int64(2), nil)
	attempts.On("FailStuckVerifying", mock.Anything, fixedNow.Add(-time.Hour), stuckVerificationReason).Return(nil, nil)

	newRunner(attempts, &Services{}).ExpireCheckoutAttempts()
	attempts.AssertExpectations(t)
}

func TestExpireCheckoutAttempts_ErrorIsLogged(t *testing.T) {
	attempts := new(mockAttempts)
	attempts.On("ExpireStale", mock.Anything, mock.Anything).Return(int64(0), assert.AnError)
	attempts.On("FailStuckVerifying", mock.Anything, mock.Anything, mock.Anything).Return(nil, assert.AnError)

	assert.NotPanics(t, newRunner(attempts, &Services{}).ExpireCheckoutAttempts)
	attempts.AssertExpectations(t)
}

func TestExpireCheckoutAttempts_StuckVerificationAlertsSupport(t *testing.T) {
	attempts := new(mockAttempts)
	alerter := new(mockAlerter)
	stuck := domain.CheckoutAttempt{
		ID: "att-1", SessionID: "s-1", CarID: "car-1", OrderID: "order_1", Amount: 3304,
		State: domain.PaymentStateFailed, FailureKind: domain.FailureUnverified, FailureReason: stuckVerificationReason,
	}
	attempts.On("ExpireStale", mock.Anything, mock.Anything).Return(int64(0), nil)
	attempts.On("FailStuckVerifying", mock.Anything, fixedNow.Add(-time.Hour), stuckVerificationReason).
		Return([]domain.CheckoutAttempt{stuck}, nil)
	alerter.On("UnverifiedPayment", mock.Anything, mock.MatchedBy(func(p domain.UnverifiedPayment) bool {
		return p.AttemptID == "att-1" && p.OrderID == "order_1" && p.Amount == 3304
	})).Return(nil)

	newRunner(attempts, &Services{Alerter: alerter}).ExpireCheckoutAttempts()
	attempts.AssertExpectations(t)
	alerter.AssertExpectations(t)
}

func TestPurgeExpiredSessions(t *testing.T) {
	sessions := new(mockSessions)
	sessions.On("PurgeExpired", mock.Anything).Return(int64(5), nil)

	newRunner(new(mockAttempts), &Services{Sessions: sessions}).PurgeExpiredSessions()
	sessions.AssertExpectations(t)
}

func TestPruneQuotes(t *testing.T) {
	quotes := new(mockQuotes)
	orders := new(mockOrders)
	cutoff := fixedNow.Add(-time.Hour)
	quotes.On("Prune", cutoff).Return(3)
	orders.On("ForgetConsumedBefore", cutoff).Return(1)

	newRunner(new(mockAttempts), &Services{Quotes: quotes, Orders: orders}).PruneQuotes()
	quotes.AssertExpectations(t)
	orders.AssertExpectations(t)
}

func TestRunAll_SkipsMemoryJobsOutsideServer(t *testing.T) {
	attempts := new(mockAttempts)
	sessions := new(mockSessions)
	attempts.On("ExpireStale", mock.Anything, mock.Anything).Return(int64(0), nil)
	attempts.On("FailStuckVerifying", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	sessions.On("PurgeExpired", mock.Anything).Return(int64(0), nil)

	jr := newRunner(attempts, &Services{Sessions: sessions})
	assert.False(t, jr.InMemory())
	jr.RunAll()

	attempts.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestRunWithRecovery(t *testing.T) {
	jr := newRunner(new(mockAttempts), &Services{})
	assert.NotPanics(t, func() {
		jr.runWithRecovery("Boom", func() { panic("boom") })
	})
}
