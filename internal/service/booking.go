package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository"
	"doorcars-storefront/internal/repository/rest"
	"doorcars-storefront/internal/utils"
)

// BookingRequest is a "Book Now" press with everything already loaded.
// Tiers is the list priced for Window; the plan is selected from it here.
type BookingRequest struct {
	SessionID string
	Car       domain.Car
	Window    domain.RentalWindow
	Tiers     []domain.PricingTier
	Hint      *domain.TierID
	Locations domain.LocationSelection
}

// CheckoutRequest is a "Book Now" press as it arrives from a detail page.
type CheckoutRequest struct {
	SessionID string
	PageKey   string
	CarID     string
	Window    domain.RentalWindow
	Hint      *domain.TierID
	Locations domain.LocationSelection
}

type bookingService struct {
	cars         CarService
	quotes       QuoteService
	gate         EligibilityService
	orchestrator PaymentOrchestrator
	sessions     SessionService
	bookingRepo  repository.BookingRepository
	attemptRepo  repository.CheckoutAttemptRepository
	minDuration  time.Duration
}

func NewBookingService(
	cars CarService,
	quotes QuoteService,
	gate EligibilityService,
	orchestrator PaymentOrchestrator,
	sessions SessionService,
	bookingRepo repository.BookingRepository,
	attemptRepo repository.CheckoutAttemptRepository,
	minDuration time.Duration,
) BookingService {
	return &bookingService{
		cars:         cars,
		quotes:       quotes,
		gate:         gate,
		orchestrator: orchestrator,
		sessions:     sessions,
		bookingRepo:  bookingRepo,
		attemptRepo:  attemptRepo,
		minDuration:  minDuration,
	}
}

// BookNow runs the checks in order and stops at the first failure:
// dates present, minimum duration, a plan, locations when the car has them,
// then the eligibility gate. Only then is payment started.
//
// The returned error is reserved for infrastructure failures; every user
// facing result is a BookingOutcome.
func (s *bookingService) BookNow(ctx context.Context, req BookingRequest) (*domain.BookingOutcome, error) {
	logger.EnterMethod("bookingService.BookNow", "session_id", req.SessionID, "car_id", req.Car.ID)

	if out := s.checkWindow(req.Window); out != nil {
		logger.ExitMethod("bookingService.BookNow", "outcome", out.Status, "reason", out.Reason)
		return out, nil
	}

	plan, ok := utils.SelectTier(req.Tiers, req.Hint)
	if !ok {
		logger.ExitMethod("bookingService.BookNow", "outcome", domain.OutcomeRejected, "reason", domain.ErrNoPlan)
		return domain.Rejected(domain.FailureValidation, domain.ErrNoPlan.Error()), nil
	}

	if req.Car.RequiresLocations() && !req.Locations.Complete() {
		logger.ExitMethod("bookingService.BookNow", "outcome", domain.OutcomeRejected, "reason", domain.ErrMissingLocations)
		return domain.Rejected(domain.FailureValidation, domain.ErrMissingLocations.Error()), nil
	}

	decision, err := s.gate.CheckEligibility(ctx, req.SessionID, req.Car, req.Locations)
	if err != nil {
		logger.ExitMethodWithError("bookingService.BookNow", err)
		return nil, err
	}
	switch decision.Verdict {
	case GateRedirect:
		logger.ExitMethod("bookingService.BookNow", "outcome", domain.OutcomeRedirect, "target", decision.Redirect.Target)
		return domain.Redirected(*decision.Redirect), nil
	case GateReject:
		logger.ExitMethod("bookingService.BookNow", "outcome", domain.OutcomeRejected, "reason", decision.Reason)
		return domain.Rejected(domain.FailureValidation, decision.Reason.Error()), nil
	}

	out := s.orchestrator.Pay(ctx, CheckoutIntent{
		SessionID: req.SessionID,
		Car:       req.Car,
		Window:    req.Window,
		Plan:      plan,
		Locations: req.Locations,
	})
	if out.Status == domain.OutcomeConfirmed {
		s.countBooking(context.WithoutCancel(ctx), req.SessionID)
	}
	logger.ExitMethod("bookingService.BookNow", "outcome", out.Status, "attempt_id", out.AttemptID)
	return out, nil
}

// Checkout loads the car and the tiers priced for the window, then books.
// Window problems are answered before anything is fetched.
func (s *bookingService) Checkout(ctx context.Context, req CheckoutRequest) (*domain.BookingOutcome, error) {
	if out := s.checkWindow(req.Window); out != nil {
		return out, nil
	}

	tiers, err := s.quotes.TiersFor(ctx, req.PageKey, req.CarID, req.Window)
	if err != nil {
		return domain.Rejected(domain.FailureTransient, rest.MessageOf(err)), nil
	}

	car, err := s.cars.GetCar(ctx, req.CarID)
	if err != nil {
		if errors.Is(err, domain.ErrCarUnavailable) {
			return domain.Rejected(domain.FailureValidation, "Car not found or unavailable"), nil
		}
		return domain.Rejected(domain.FailureTransient, rest.MessageOf(err)), nil
	}

	return s.BookNow(ctx, BookingRequest{
		SessionID: req.SessionID,
		Car:       *car,
		Window:    req.Window,
		Tiers:     tiers,
		Hint:      req.Hint,
		Locations: req.Locations,
	})
}

func (s *bookingService) checkWindow(w domain.RentalWindow) *domain.BookingOutcome {
	if !w.IsComplete() {
		return domain.Rejected(domain.FailureValidation, domain.ErrIncompleteWindow.Error())
	}
	if err := utils.ValidateRentalWindow(w, s.minDuration); err != nil {
		return domain.Rejected(domain.FailureValidation, err.Error())
	}
	return nil
}

// countBooking bumps the stored booking count so the next checkout in this
// session is held to the repeat-renter rule.
func (s *bookingService) countBooking(ctx context.Context, sessionID string) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		logger.Warn("Failed to load session after booking", "session_id", sessionID, "error", err)
		return
	}
	profile := session.Profile
	profile.TotalBookings++
	if err := s.sessions.RefreshProfile(ctx, sessionID, profile); err != nil {
		logger.Warn("Failed to update booking count", "session_id", sessionID, "error", err)
	}
}

func (s *bookingService) GetAttempt(ctx context.Context, sessionID, attemptID string) (*domain.CheckoutAttempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.SessionID != sessionID {
		return nil, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, sessionID string, filter domain.BookingFilter, now time.Time) ([]domain.Booking, error) {
	token, err := s.sessions.Token(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookingRepo.ListMine(ctx, token)
	if err != nil {
		if rest.IsUnauthorized(err) {
			if endErr := s.sessions.End(ctx, sessionID); endErr != nil {
				logger.Warn("Failed to end rejected session", "session_id", sessionID, "error", endErr)
			}
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionExpired, rest.MessageOf(err))
		}
		return nil, err
	}

	out := make([]domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Matches(filter, now) {
			out = append(out, b)
		}
	}
	return out, nil
}
