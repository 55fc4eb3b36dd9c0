package repository

import (
	"context"
	"time"

	"doorcars-storefront/internal/domain"
)

// CarRepository reads inventory and pricing from the remote API.
type CarRepository interface {
	List(ctx context.Context, filter domain.CarFilter) ([]domain.Car, error)
	Featured(ctx context.Context) ([]domain.Car, error)
	GetByID(ctx context.Context, id string) (*domain.Car, error)
	Cities(ctx context.Context) ([]string, error)
	CalculatePrice(ctx context.Context, carID string, window domain.RentalWindow) ([]domain.PricingTier, error)
}

// BookingRepository talks to the remote API's booking endpoints.
// Every call needs the user's bearer token.
type BookingRepository interface {
	CreateOrder(ctx context.Context, token string, req domain.OrderRequest) (*domain.PaymentOrder, error)
	VerifyPayment(ctx context.Context, token string, req domain.VerificationRequest) (*domain.VerificationResult, error)
	ListMine(ctx context.Context, token string) ([]domain.Booking, error)
}

type UserRepository interface {
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (string, error)
	VerifyEmail(ctx context.Context, email, otp string) (*domain.AuthResult, error)
	ResendOTP(ctx context.Context, email string) (string, error)
	GetProfile(ctx context.Context, token string) (*domain.User, error)
	UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.User, error)
	UploadDocuments(ctx context.Context, token string, files map[domain.DocumentSlot]domain.DocumentFile) (*domain.DocumentUploadResult, error)
}

// SessionRepository persists the storefront's client state.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	UpdateProfile(ctx context.Context, id string, profile domain.User) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type CheckoutAttemptRepository interface {
	Create(ctx context.Context, attempt *domain.CheckoutAttempt) error
	GetByID(ctx context.Context, id string) (*domain.CheckoutAttempt, error)
	Update(ctx context.Context, attempt *domain.CheckoutAttempt) error
	HasOpenAttempt(ctx context.Context, sessionID, carID string, window domain.RentalWindow) (bool, error)
	ExpireStale(ctx context.Context, before time.Time) (int64, error)
	FailStuckVerifying(ctx context.Context, before time.Time, reason string) ([]domain.CheckoutAttempt, error)
}
