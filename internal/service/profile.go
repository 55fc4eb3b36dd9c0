package service

import (
	"context"
	"errors"
	"fmt"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository"
	"doorcars-storefront/internal/repository/rest"
)

type profileService struct {
	userRepo repository.UserRepository
	sessions SessionService
}

func NewProfileService(userRepo repository.UserRepository, sessions SessionService) ProfileService {
	return &profileService{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// GetProfile reads the profile from the remote API and refreshes the session
// snapshot so the eligibility gate sees the current document status. A 401
// ends the session.
func (s *profileService) GetProfile(ctx context.Context, sessionID string) (*domain.User, error) {
	token, err := s.sessions.Token(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetProfile(ctx, token)
	if err != nil {
		return nil, s.handleBackendError(ctx, sessionID, err)
	}
	s.refresh(ctx, sessionID, *user)
	return user, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, sessionID string, update domain.ProfileUpdate) (*domain.User, error) {
	token, err := s.sessions.Token(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.UpdateProfile(ctx, token, update)
	if err != nil {
		return nil, s.handleBackendError(ctx, sessionID, err)
	}
	s.refresh(ctx, sessionID, *user)
	return user, nil
}

// UploadDocuments sends the selected identity documents and merges the
// backend's document state into the stored profile.
func (s *profileService) UploadDocuments(ctx context.Context, sessionID string, files map[domain.DocumentSlot]domain.DocumentFile) (*domain.User, error) {
	if len(files) == 0 {
		return nil, domain.ErrNoDocuments
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	token, err := s.sessions.Token(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	res, err := s.userRepo.UploadDocuments(ctx, token, files)
	if err != nil {
		return nil, s.handleBackendError(ctx, sessionID, err)
	}

	profile := session.Profile
	profile.Documents = res.Documents
	profile.IsDocumentVerified = res.IsDocumentVerified
	s.refresh(ctx, sessionID, profile)
	logger.Info("Documents uploaded", "session_id", sessionID, "files", len(files), "verified", res.IsDocumentVerified)
	return &profile, nil
}

func (s *profileService) refresh(ctx context.Context, sessionID string, profile domain.User) {
	if err := s.sessions.RefreshProfile(ctx, sessionID, profile); err != nil {
		logger.Warn("Failed to refresh session profile", "session_id", sessionID, "error", err)
	}
}

func (s *profileService) handleBackendError(ctx context.Context, sessionID string, err error) error {
	if !rest.IsUnauthorized(err) {
		return err
	}
	if endErr := s.sessions.End(ctx, sessionID); endErr != nil {
		logger.Warn("Failed to end rejected session", "session_id", sessionID, "error", endErr)
	}
	return fmt.Errorf("%w: %s", domain.ErrSessionExpired, rest.MessageOf(err))
}

// isSessionError reports whether err means the caller has to sign in again.
func isSessionError(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionExpired)
}
