package domain

import "time"

// LocalDateTimeLayout is the wire format the remote API uses for rental instants.
const LocalDateTimeLayout = "2006-01-02T15:04"

// RentalWindow is the pickup-to-return interval chosen on a car's detail page.
type RentalWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsComplete reports whether both instants have been chosen.
func (w RentalWindow) IsComplete() bool {
	return !w.Start.IsZero() && !w.End.IsZero()
}

// Duration returns end minus start. It is negative for a malformed window.
func (w RentalWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// DurationHours returns the window length in (fractional) hours.
func (w RentalWindow) DurationHours() float64 {
	return w.Duration().Hours()
}

// Equal compares instants, ignoring monotonic clock readings and location.
func (w RentalWindow) Equal(other RentalWindow) bool {
	return w.Start.Equal(other.Start) && w.End.Equal(other.End)
}

// StartParam formats the start instant the way the remote API expects it.
func (w RentalWindow) StartParam() string {
	return w.Start.Format(LocalDateTimeLayout)
}

// EndParam formats the end instant the way the remote API expects it.
func (w RentalWindow) EndParam() string {
	return w.End.Format(LocalDateTimeLayout)
}
