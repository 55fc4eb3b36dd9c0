package utils

import (
	"fmt"
	"strings"
	"time"

	"doorcars-storefront/internal/domain"
)

// MinRentalDuration is the shortest window a car can be booked for.
const MinRentalDuration = 8 * time.Hour

const (
	DefaultStartTime = "10:00"
	DefaultEndTime   = "19:00"
)

// ValidateRentalWindow checks a complete window against the minimum duration.
// A window whose end is not after its start is malformed and is never
// measured. The lower bound is inclusive.
func ValidateRentalWindow(w domain.RentalWindow, min time.Duration) error {
	if !w.End.After(w.Start) {
		return domain.ErrMalformedWindow
	}
	if w.Duration() < min {
		return fmt.Errorf("%w: minimum rental duration is %g hours", domain.ErrWindowTooShort, min.Hours())
	}
	return nil
}

// ParseLocalDateTime parses "YYYY-MM-DDTHH:MM" in loc. When the time part is
// missing, defaultTime ("HH:MM") is used.
func ParseLocalDateTime(value, defaultTime string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	date, clock, found := strings.Cut(value, "T")
	if !found || clock == "" {
		clock = defaultTime
	}
	// Tolerate seconds from datetime-local inputs.
	if len(clock) > 5 {
		clock = clock[:5]
	}
	t, err := time.ParseInLocation(domain.LocalDateTimeLayout, date+"T"+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DDTHH:MM: %w", value, err)
	}
	return t, nil
}

// ParseRentalWindow builds a window from the start/end parameters. Either side
// may be empty, in which case the window is incomplete but not an error.
func ParseRentalWindow(start, end string, loc *time.Location) (domain.RentalWindow, error) {
	s, err := ParseLocalDateTime(start, DefaultStartTime, loc)
	if err != nil {
		return domain.RentalWindow{}, err
	}
	e, err := ParseLocalDateTime(end, DefaultEndTime, loc)
	if err != nil {
		return domain.RentalWindow{}, err
	}
	return domain.RentalWindow{Start: s, End: e}, nil
}

// QuickDuration returns a window of the given number of days beginning at
// start, or at now (truncated to the minute) when start is zero.
func QuickDuration(start time.Time, days int, now time.Time) domain.RentalWindow {
	if start.IsZero() {
		start = now.Truncate(time.Minute)
	}
	return domain.RentalWindow{Start: start, End: start.AddDate(0, 0, days)}
}
