package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository"
	"doorcars-storefront/internal/security"

	"github.com/google/uuid"
)

type sessionService struct {
	repo      repository.SessionRepository
	sealer    security.Sealer
	inspector security.TokenInspector
	ttl       time.Duration
	now       func() time.Time
}

// SessionStore is both the session service and the trust provider the
// eligibility gate reads from.
type SessionStore interface {
	SessionService
	TrustProvider
}

func NewSessionService(repo repository.SessionRepository, sealer security.Sealer, inspector security.TokenInspector, ttl time.Duration) SessionStore {
	return &sessionService{
		repo:      repo,
		sealer:    sealer,
		inspector: inspector,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *sessionService) Start(ctx context.Context, token string, profile domain.User) (*domain.Session, error) {
	sealed, err := s.sealer.Seal([]byte(token))
	if err != nil {
		return nil, fmt.Errorf("failed to seal token: %w", err)
	}
	expires := s.now().Add(s.ttl)
	// Never outlive the backend token itself.
	if claims, err := s.inspector.Inspect(token); err == nil && claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(expires) {
		expires = claims.ExpiresAt.Time
	}
	session := &domain.Session{
		ID:          uuid.NewString(),
		SealedToken: sealed,
		Profile:     profile,
		ExpiresOn:   expires,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	logger.Info("Session started", "session_id", session.ID, "user_id", profile.ID)
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionNotFound
	}
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.now().Before(session.ExpiresOn) {
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

func (s *sessionService) Token(ctx context.Context, sessionID string) (string, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return s.open(session)
}

func (s *sessionService) open(session *domain.Session) (string, error) {
	token, err := s.sealer.Open(session.SealedToken)
	if err != nil {
		return "", fmt.Errorf("failed to open token of session %s: %w", session.ID, err)
	}
	return string(token), nil
}

func (s *sessionService) RefreshProfile(ctx context.Context, sessionID string, profile domain.User) error {
	return s.repo.UpdateProfile(ctx, sessionID, profile)
}

func (s *sessionService) End(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	logger.Info("Session ended", "session_id", sessionID)
	return nil
}

func (s *sessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

// TrustState reads the stored session as it is right now. A missing, expired
// or token-expired session is simply unauthenticated.
func (s *sessionService) TrustState(ctx context.Context, sessionID string) (domain.UserTrustState, error) {
	session, err := s.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionExpired) {
		return domain.UserTrustState{}, nil
	}
	if err != nil {
		return domain.UserTrustState{}, err
	}
	token, err := s.open(session)
	if err != nil {
		logger.Warn("Unreadable session token, treating as signed out", "session_id", sessionID, "error", err)
		return domain.UserTrustState{}, nil
	}
	if !s.inspector.IsAuthenticated(token, s.now()) {
		return domain.UserTrustState{}, nil
	}
	return domain.TrustStateOf(session.Profile), nil
}
