package domain

import "time"

type OutcomeStatus string

const (
	OutcomeConfirmed OutcomeStatus = "CONFIRMED"
	OutcomeRejected  OutcomeStatus = "REJECTED"
	OutcomeRedirect  OutcomeStatus = "REDIRECT"
	OutcomeCancelled OutcomeStatus = "CANCELLED"
)

// FailureKind classifies a rejected outcome.
type FailureKind string

const (
	FailureValidation FailureKind = "VALIDATION"
	FailureTrust      FailureKind = "TRUST"
	FailureTransient  FailureKind = "TRANSIENT"
	FailureGateway    FailureKind = "GATEWAY"
	// The gateway charged but the remote API did not confirm the booking.
	// Needs a support follow-up rather than a plain retry.
	FailureUnverified FailureKind = "UNVERIFIED"
)

type RedirectTarget string

const (
	RedirectLogin   RedirectTarget = "login"
	RedirectProfile RedirectTarget = "profile"
)

type Redirect struct {
	Target  RedirectTarget `json:"target"`
	Path    string         `json:"path"`
	Message string         `json:"message"`
}

// BookingOutcome is the terminal result of a "Book Now" press.
type BookingOutcome struct {
	Status    OutcomeStatus `json:"status"`
	BookingID string        `json:"bookingId,omitempty"`
	Kind      FailureKind   `json:"kind,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Redirect  *Redirect     `json:"redirect,omitempty"`
	AttemptID string        `json:"attemptId,omitempty"`
}

func Confirmed(attemptID, bookingID string) *BookingOutcome {
	return &BookingOutcome{Status: OutcomeConfirmed, AttemptID: attemptID, BookingID: bookingID}
}

func Rejected(kind FailureKind, reason string) *BookingOutcome {
	return &BookingOutcome{Status: OutcomeRejected, Kind: kind, Reason: reason}
}

func Redirected(r Redirect) *BookingOutcome {
	return &BookingOutcome{Status: OutcomeRedirect, Kind: FailureTrust, Reason: r.Message, Redirect: &r}
}

func Cancelled(attemptID string) *BookingOutcome {
	return &BookingOutcome{Status: OutcomeCancelled, AttemptID: attemptID}
}

// SuccessPath is the confirmation route carrying the booking reference.
func (o BookingOutcome) SuccessPath() string {
	if o.Status != OutcomeConfirmed {
		return ""
	}
	return "/booking/success?bookingId=" + o.BookingID
}

const BookingStatusCancelled = "cancelled"

// UnverifiedPayment describes a charge the gateway reported as completed but
// the remote API did not turn into a booking.
type UnverifiedPayment struct {
	AttemptID string
	SessionID string
	UserEmail string
	CarID     string
	OrderID   string
	PaymentID string
	Amount    float64
	Reason    string
}

// Booking is an entry of the "my bookings" list.
type Booking struct {
	ID         string      `json:"_id"`
	Car        *Car        `json:"car,omitempty"`
	StartDate  time.Time   `json:"startDate"`
	EndDate    time.Time   `json:"endDate"`
	TotalPrice float64     `json:"totalPrice"`
	Status     string      `json:"status"`
	Plan       PlanSummary `json:"plan"`
}

type BookingFilter string

const (
	BookingFilterAll       BookingFilter = "all"
	BookingFilterUpcoming  BookingFilter = "upcoming"
	BookingFilterOngoing   BookingFilter = "ongoing"
	BookingFilterCompleted BookingFilter = "completed"
	BookingFilterCancelled BookingFilter = "cancelled"
)

// ParseBookingFilter maps unknown or empty values to BookingFilterAll.
func ParseBookingFilter(s string) BookingFilter {
	switch f := BookingFilter(s); f {
	case BookingFilterUpcoming, BookingFilterOngoing, BookingFilterCompleted, BookingFilterCancelled:
		return f
	default:
		return BookingFilterAll
	}
}

// Matches reports whether the booking belongs under filter at instant now.
// A cancelled booking is only ever listed as cancelled.
func (b Booking) Matches(filter BookingFilter, now time.Time) bool {
	if filter == BookingFilterAll || filter == "" {
		return true
	}
	if b.Status == BookingStatusCancelled {
		return filter == BookingFilterCancelled
	}
	switch filter {
	case BookingFilterCompleted:
		return b.EndDate.Before(now)
	case BookingFilterOngoing:
		return !b.StartDate.After(now) && !b.EndDate.Before(now)
	case BookingFilterUpcoming:
		return b.StartDate.After(now)
	}
	return false
}
