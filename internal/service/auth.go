package service

import (
	"context"
	"errors"
	"strings"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository"
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrMissingOTP         = errors.New("email and otp are required")
)

type authService struct {
	userRepo repository.UserRepository
	sessions SessionService
}

func NewAuthService(userRepo repository.UserRepository, sessions SessionService) AuthService {
	return &authService{
		userRepo: userRepo,
		sessions: sessions,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	logger.EnterMethod("authService.Login", "email", email)
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	res, err := s.userRepo.Login(ctx, email, password)
	if err != nil {
		logger.ExitMethodWithError("authService.Login", err, "email", email)
		return nil, err
	}

	session, err := s.sessions.Start(ctx, res.Token, res.User)
	if err != nil {
		logger.ExitMethodWithError("authService.Login", err, "email", email)
		return nil, err
	}
	logger.ExitMethod("authService.Login", "session_id", session.ID)
	return session, nil
}

func (s *authService) Register(ctx context.Context, reg domain.Registration) (string, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Name = strings.TrimSpace(reg.Name)
	if reg.Email == "" || reg.Password == "" {
		return "", ErrMissingCredentials
	}
	return s.userRepo.Register(ctx, reg)
}

// VerifyEmail confirms the OTP sent at registration and signs the user in.
func (s *authService) VerifyEmail(ctx context.Context, email, otp string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return nil, ErrMissingOTP
	}
	res, err := s.userRepo.VerifyEmail(ctx, email, otp)
	if err != nil {
		return nil, err
	}
	return s.sessions.Start(ctx, res.Token, res.User)
}

func (s *authService) ResendOTP(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrMissingOTP
	}
	return s.userRepo.ResendOTP(ctx, email)
}

// Logout clears the stored token and profile snapshot.
func (s *authService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.End(ctx, sessionID)
}
