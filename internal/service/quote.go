package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository"
	"doorcars-storefront/internal/utils"
)

// quoteSlot is the quote state of one detail page.
type quoteSlot struct {
	latest  uint64 // sequence of the most recently issued request
	applied *domain.Quote
	touched time.Time
}

type quoteService struct {
	carRepo     repository.CarRepository
	minDuration time.Duration
	debounce    time.Duration
	now         func() time.Time

	mu    sync.Mutex
	slots map[string]*quoteSlot
}

func NewQuoteService(carRepo repository.CarRepository, minDuration, debounce time.Duration) QuoteService {
	return &quoteService{
		carRepo:     carRepo,
		minDuration: minDuration,
		debounce:    debounce,
		now:         time.Now,
		slots:       make(map[string]*quoteSlot),
	}
}

// Quote prices window for the page identified by pageKey. Rapid calls are
// coalesced: a request that is overtaken during the debounce delay, or whose
// answer arrives after a newer request was issued, returns
// domain.ErrQuoteSuperseded and leaves the applied quote untouched.
//
// An invalid window clears the page's quote without calling the remote API.
func (s *quoteService) Quote(ctx context.Context, pageKey, carID string, window domain.RentalWindow, hint *domain.TierID) (*domain.Quote, error) {
	seq := s.issue(pageKey)

	if !window.IsComplete() {
		s.clear(pageKey, seq)
		return nil, domain.ErrIncompleteWindow
	}
	if err := utils.ValidateRentalWindow(window, s.minDuration); err != nil {
		s.clear(pageKey, seq)
		return nil, err
	}

	if s.debounce > 0 {
		timer := time.NewTimer(s.debounce)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
		if !s.isLatest(pageKey, seq) {
			return nil, domain.ErrQuoteSuperseded
		}
	}

	tiers, err := s.carRepo.CalculatePrice(ctx, carID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate price: %w", err)
	}

	quote := &domain.Quote{CarID: carID, Window: window, Tiers: tiers, Sequence: seq}
	// Selection always runs on the fresh list; nothing carries over from an
	// earlier window except through the hint.
	if t, ok := utils.SelectTier(tiers, hint); ok {
		quote.Selected = &t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.slots[pageKey]
	if slot == nil || slot.latest != seq {
		logger.Debug("Discarding stale price quote", "page", pageKey, "car_id", carID, "sequence", seq)
		return nil, domain.ErrQuoteSuperseded
	}
	slot.applied = quote
	slot.touched = s.now()
	return quote, nil
}

// TiersFor returns the tiers applied on the page when they were priced for
// exactly this car and window, and fetches fresh ones otherwise.
func (s *quoteService) TiersFor(ctx context.Context, pageKey, carID string, window domain.RentalWindow) ([]domain.PricingTier, error) {
	s.mu.Lock()
	if slot := s.slots[pageKey]; slot != nil && slot.applied != nil &&
		slot.applied.CarID == carID && slot.applied.Window.Equal(window) {
		tiers := slot.applied.Tiers
		s.mu.Unlock()
		return tiers, nil
	}
	s.mu.Unlock()

	if err := utils.ValidateRentalWindow(window, s.minDuration); err != nil {
		return nil, err
	}
	tiers, err := s.carRepo.CalculatePrice(ctx, carID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate price: %w", err)
	}
	return tiers, nil
}

// Prune forgets pages not touched since before.
func (s *quoteService) Prune(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, slot := range s.slots {
		if slot.touched.Before(before) {
			delete(s.slots, key)
			n++
		}
	}
	return n
}

func (s *quoteService) issue(pageKey string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.slots[pageKey]
	if slot == nil {
		slot = &quoteSlot{}
		s.slots[pageKey] = slot
	}
	slot.latest++
	slot.touched = s.now()
	return slot.latest
}

func (s *quoteService) isLatest(pageKey string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.slots[pageKey]
	return slot != nil && slot.latest == seq
}

func (s *quoteService) clear(pageKey string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot := s.slots[pageKey]; slot != nil && slot.latest == seq {
		slot.applied = nil
	}
}
