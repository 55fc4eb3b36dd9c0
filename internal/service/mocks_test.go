package service_test

import (
	"context"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/service"
	"doorcars-storefront/internal/utils"

	"github.com/stretchr/testify/mock"
)

// MockCarRepo
type MockCarRepo struct {
	mock.Mock
}

func (m *MockCarRepo) List(ctx context.Context, filter domain.CarFilter) ([]domain.Car, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Car), args.Error(1)
}
func (m *MockCarRepo) Featured(ctx context.Context) ([]domain.Car, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Car), args.Error(1)
}
func (m *MockCarRepo) GetByID(ctx context.Context, id string) (*domain.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Car), args.Error(1)
}
func (m *MockCarRepo) Cities(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockCarRepo) CalculatePrice(ctx context.Context, carID string, window domain.RentalWindow) ([]domain.PricingTier, error) {
	args := m.Called(ctx, carID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PricingTier), args.Error(1)
}

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) CreateOrder(ctx context.Context, token string, req domain.OrderRequest) (*domain.PaymentOrder, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentOrder), args.Error(1)
}
func (m *MockBookingRepo) VerifyPayment(ctx context.Context, token string, req domain.VerificationRequest) (*domain.VerificationResult, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationResult), args.Error(1)
}
func (m *MockBookingRepo) ListMine(ctx context.Context, token string) ([]domain.Booking, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}
func (m *MockUserRepo) Register(ctx context.Context, reg domain.Registration) (string, error) {
	args := m.Called(ctx, reg)
	return args.String(0), args.Error(1)
}
func (m *MockUserRepo) VerifyEmail(ctx context.Context, email, otp string) (*domain.AuthResult, error) {
	args := m.Called(ctx, email, otp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}
func (m *MockUserRepo) ResendOTP(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}
func (m *MockUserRepo) GetProfile(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.User, error) {
	args := m.Called(ctx, token, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) UploadDocuments(ctx context.Context, token string, files map[domain.DocumentSlot]domain.DocumentFile) (*domain.DocumentUploadResult, error) {
	args := m.Called(ctx, token, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentUploadResult), args.Error(1)
}

// MockSessionRepo
type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}
func (m *MockSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}
func (m *MockSessionRepo) UpdateProfile(ctx context.Context, id string, profile domain.User) error {
	args := m.Called(ctx, id, profile)
	return args.Error(0)
}
func (m *MockSessionRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockAttemptRepo
type MockAttemptRepo struct {
	mock.Mock
}

func (m *MockAttemptRepo) Create(ctx context.Context, attempt *domain.CheckoutAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}
func (m *MockAttemptRepo) GetByID(ctx context.Context, id string) (*domain.CheckoutAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutAttempt), args.Error(1)
}
func (m *MockAttemptRepo) Update(ctx context.Context, attempt *domain.CheckoutAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}
func (m *MockAttemptRepo) HasOpenAttempt(ctx context.Context, sessionID, carID string, window domain.RentalWindow) (bool, error) {
	args := m.Called(ctx, sessionID, carID, window)
	return args.Bool(0), args.Error(1)
}
func (m *MockAttemptRepo) ExpireStale(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepo) FailStuckVerifying(ctx context.Context, before time.Time, reason string) ([]domain.CheckoutAttempt, error) {
	args := m.Called(ctx, before, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CheckoutAttempt), args.Error(1)
}

// MockSessionService
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Start(ctx context.Context, token string, profile domain.User) (*domain.Session, error) {
	args := m.Called(ctx, token, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}
func (m *MockSessionService) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}
func (m *MockSessionService) Token(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}
func (m *MockSessionService) RefreshProfile(ctx context.Context, sessionID string, profile domain.User) error {
	args := m.Called(ctx, sessionID, profile)
	return args.Error(0)
}
func (m *MockSessionService) End(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
func (m *MockSessionService) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockTrustProvider
type MockTrustProvider struct {
	mock.Mock
}

func (m *MockTrustProvider) TrustState(ctx context.Context, sessionID string) (domain.UserTrustState, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.UserTrustState), args.Error(1)
}

// MockGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Checkout(ctx context.Context, opts domain.CheckoutOptions) (*domain.PaymentResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResult), args.Error(1)
}

// MockAlerter
type MockAlerter struct {
	mock.Mock
}

func (m *MockAlerter) UnverifiedPayment(ctx context.Context, p domain.UnverifiedPayment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockOrchestrator
type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) Pay(ctx context.Context, intent service.CheckoutIntent) *domain.BookingOutcome {
	args := m.Called(ctx, intent)
	return args.Get(0).(*domain.BookingOutcome)
}

// MockCarService
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

// MockQuoteService
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
	args := m.Called(before)
	return args.Int(0)
}

// fixtures

var ist = time.FixedZone("IST", 5*3600+1800)

func window(startHour, hours int) domain.RentalWindow {
	start := time.Date(2026, 11, 2, startHour, 0, 0, 0, ist)
	return domain.RentalWindow{Start: start, End: start.Add(time.Duration(hours) * time.Hour)}
}

func standardTiers() []domain.PricingTier {
	return []domain.PricingTier{
		{ID: domain.TierID200, Name: "200 km", IncludedKm: 200, ExtraKmCharge: 12, BasePrice: 2000, FinalPrice: 2360},
		{ID: domain.TierID400, Name: "400 km", IncludedKm: 400, ExtraKmCharge: 10, BasePrice: 2800, FinalPrice: 3304, Recommended: true},
		{ID: domain.TierID1000, Name: "1000 km", IncludedKm: 1000, ExtraKmCharge: 8, BasePrice: 4200, FinalPrice: 4956},
	}
}

func swift() domain.Car {
	return domain.Car{ID: "car-1", Brand: "Maruti", Model: "Swift", City: "Pune"}
}

func carWithLocations() domain.Car {
	c := swift()
	c.PickupLocations = []domain.LocationChoice{{Name: "Station", Address: "Pune Station"}}
	c.DropLocations = []domain.LocationChoice{{Name: "Airport", Address: "Pune Airport"}}
	return c
}

func verifiedRenter() domain.UserTrustState {
	return domain.UserTrustState{IsAuthenticated: true, TotalBookings: 1, HasUploadedIdentityDocs: true, IsDocumentVerified: true}
}

func tierPtr(id domain.TierID) *domain.TierID { return &id }
