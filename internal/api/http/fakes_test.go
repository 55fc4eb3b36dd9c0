package http

import (
	"context"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/service"
	"doorcars-storefront/internal/utils"

	"github.com/stretchr/testify/mock"
)

// fakeSessions knows a fixed set of live session ids.
type fakeSessions struct {
	live map[string]domain.User
}

func (f *fakeSessions) Start(ctx context.Context, token string, profile domain.User) (*domain.Session, error) {
	return &domain.Session{ID: "s-new", Profile: profile, ExpiresOn: time.Now().Add(time.Hour)}, nil
}
func (f *fakeSessions) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	u, ok := f.live[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &domain.Session{ID: sessionID, Profile: u, ExpiresOn: time.Now().Add(time.Hour)}, nil
}
func (f *fakeSessions) Token(ctx context.Context, sessionID string) (string, error) {
	return "jwt-token", nil
}
func (f *fakeSessions) RefreshProfile(ctx context.Context, sessionID string, profile domain.User) error {
	return nil
}
func (f *fakeSessions) End(ctx context.Context, sessionID string) error { return nil }
func (f *fakeSessions) PurgeExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

// fakeBookings runs checkout through a supplied function and keeps attempts
// in memory.
type fakeBookings struct {
	checkout func(ctx context.Context, req service.CheckoutRequest) (*domain.BookingOutcome, error)
	attempts map[string]*domain.CheckoutAttempt
	bookings []domain.Booking
}

func (f *fakeBookings) BookNow(ctx context.Context, req service.BookingRequest) (*domain.BookingOutcome, error) {
	return nil, nil
}
func (f *fakeBookings) Checkout(ctx context.Context, req service.CheckoutRequest) (*domain.BookingOutcome, error) {
	return f.checkout(ctx, req)
}
func (f *fakeBookings) GetAttempt(ctx context.Context, sessionID, attemptID string) (*domain.CheckoutAttempt, error) {
	a, ok := f.attempts[attemptID]
	if !ok || a.SessionID != sessionID {
		return nil, domain.ErrAttemptNotFound
	}
	return a, nil
}
func (f *fakeBookings) ListMyBookings(ctx context.Context, sessionID string, filter domain.BookingFilter, now time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range f.bookings {
		if b.Matches(filter, now) {
			out = append(out, b)
		}
	}
	return out, nil
}

type MockCarService struct {
	mock.Mock
}

func (m *MockCarService) ListCars(ctx context.Context, filter domain.CarFilter) (*domain.CarListing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CarListing), args.Error(1)
}
func (m *MockCarService) FeaturedCars(ctx context.Context) ([]domain.Car, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Car), args.Error(1)
}
func (m *MockCarService) Cities(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockCarService) GetCar(ctx context.Context, id string) (*domain.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Car), args.Error(1)
}
func (m *MockCarService) GetCarDetail(ctx context.Context, id string, params utils.DetailParams) (*domain.CarDetail, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CarDetail), args.Error(1)
}

type MockQuoteService struct {
	mock.Mock
}

func (m *MockQuoteService) Quote(ctx context.Context, pageKey, carID string, window domain.RentalWindow, hint *domain.TierID) (*domain.Quote, error) {
	args := m.Called(ctx, pageKey, carID, window, hint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}
func (m *MockQuoteService) TiersFor(ctx context.Context, pageKey, carID string, window domain.RentalWindow) ([]domain.PricingTier, error) {
	args := m.Called(ctx, pageKey, carID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PricingTier), args.Error(1)
}
func (m *MockQuoteService) Prune(before time.Time) int {
	return m.Called(before).Int(0)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}
func (m *MockAuthService) Register(ctx context.Context, reg domain.Registration) (string, error) {
	args := m.Called(ctx, reg)
	return args.String(0), args.Error(1)
}
func (m *MockAuthService) VerifyEmail(ctx context.Context, email, otp string) (*domain.Session, error) {
	args := m.Called(ctx, email, otp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}
func (m *MockAuthService) ResendOTP(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}
func (m *MockAuthService) Logout(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetProfile(ctx context.Context, sessionID string) (*domain.User, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockProfileService) UpdateProfile(ctx context.Context, sessionID string, update domain.ProfileUpdate) (*domain.User, error) {
	args := m.Called(ctx, sessionID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockProfileService) UploadDocuments(ctx context.Context, sessionID string, files map[domain.DocumentSlot]domain.DocumentFile) (*domain.User, error) {
	args := m.Called(ctx, sessionID, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
