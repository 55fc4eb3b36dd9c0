package service

import (
	"context"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/utils"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Register(ctx context.Context, reg domain.Registration) (string, error) // returns the backend's OTP notice
	VerifyEmail(ctx context.Context, email, otp string) (*domain.Session, error)
	ResendOTP(ctx context.Context, email string) (string, error)
	Logout(ctx context.Context, sessionID string) error
}

// SessionService owns the persisted client state: the sealed backend token
// and the profile snapshot.
type SessionService interface {
	Start(ctx context.Context, token string, profile domain.User) (*domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Token(ctx context.Context, sessionID string) (string, error)
	RefreshProfile(ctx context.Context, sessionID string, profile domain.User) error
	End(ctx context.Context, sessionID string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// TrustProvider reads a user's trust state at the moment it is asked.
type TrustProvider interface {
	TrustState(ctx context.Context, sessionID string) (domain.UserTrustState, error)
}

type ProfileService interface {
	GetProfile(ctx context.Context, sessionID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, sessionID string, update domain.ProfileUpdate) (*domain.User, error)
	UploadDocuments(ctx context.Context, sessionID string, files map[domain.DocumentSlot]domain.DocumentFile) (*domain.User, error)
}

type CarService interface {
	ListCars(ctx context.Context, filter domain.CarFilter) (*domain.CarListing, error)
	FeaturedCars(ctx context.Context) ([]domain.Car, error)
	Cities(ctx context.Context) ([]string, error)
	GetCar(ctx context.Context, id string) (*domain.Car, error)
	GetCarDetail(ctx context.Context, id string, params utils.DetailParams) (*domain.CarDetail, error)
}

// QuoteService fetches pricing tiers for a detail page. pageKey identifies
// the page instance whose requests supersede one another.
type QuoteService interface {
	Quote(ctx context.Context, pageKey, carID string, window domain.RentalWindow, hint *domain.TierID) (*domain.Quote, error)
	TiersFor(ctx context.Context, pageKey, carID string, window domain.RentalWindow) ([]domain.PricingTier, error)
	Prune(before time.Time) int
}

type EligibilityService interface {
	CheckEligibility(ctx context.Context, sessionID string, car domain.Car, locations domain.LocationSelection) (GateDecision, error)
}

type PaymentOrchestrator interface {
	Pay(ctx context.Context, intent CheckoutIntent) *domain.BookingOutcome
}

type BookingService interface {
	BookNow(ctx context.Context, req BookingRequest) (*domain.BookingOutcome, error)
	Checkout(ctx context.Context, req CheckoutRequest) (*domain.BookingOutcome, error)
	GetAttempt(ctx context.Context, sessionID, attemptID string) (*domain.CheckoutAttempt, error)
	ListMyBookings(ctx context.Context, sessionID string, filter domain.BookingFilter, now time.Time) ([]domain.Booking, error)
}

// PaymentGateway opens the hosted payment widget for an order and waits for
// its answer.
type PaymentGateway interface {
	Checkout(ctx context.Context, opts domain.CheckoutOptions) (*domain.PaymentResult, error)
}

type SupportAlerter interface {
	UnverifiedPayment(ctx context.Context, p domain.UnverifiedPayment) error
}
