package domain

import "time"

// PaymentOrder is the gateway-side reservation created by the remote API.
// Amount is in minor currency units.
type PaymentOrder struct {
	OrderID    string `json:"id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	GatewayKey string `json:"keyId"`
}

// PaymentResult is what the gateway hands back on completion. It is opaque
// here and forwarded verbatim for verification.
type PaymentResult struct {
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	GatewaySignature string `json:"razorpay_signature"`
}

// CheckoutOptions are the widget options the browser opens the gateway with.
type CheckoutOptions struct {
	AttemptID   string `json:"attemptId"`
	Key         string `json:"key"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// OrderRequest is the create-order payload.
type OrderRequest struct {
	CarID          string          `json:"carId"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	Amount         float64         `json:"amount"`
	TierID         TierID          `json:"tierId"`
	PlanName       string          `json:"planName"`
	PickupLocation *LocationChoice `json:"pickupLocation"`
	DropLocation   *LocationChoice `json:"dropLocation"`
}

type PlanSummary struct {
	Name          string  `json:"name"`
	IncludedKm    int     `json:"includedKm"`
	ExtraKmCharge float64 `json:"extraKmCharge"`
}

// BookingData is the booking intent sent alongside a payment result.
type BookingData struct {
	CarID      string      `json:"carId"`
	StartDate  string      `json:"startDate"`
	EndDate    string      `json:"endDate"`
	TotalPrice float64     `json:"totalPrice"`
	Address    string      `json:"address"`
	Plan       PlanSummary `json:"plan"`
}

type VerificationRequest struct {
	RazorpayOrderID   string      `json:"razorpayOrderId"`
	RazorpayPaymentID string      `json:"razorpayPaymentId"`
	RazorpaySignature string      `json:"razorpaySignature"`
	BookingData       BookingData `json:"bookingData"`
}

type VerificationResult struct {
	Success   bool   `json:"success"`
	BookingID string `json:"bookingId,omitempty"`
	Message   string `json:"message,omitempty"`
}

type PaymentState string

const (
	PaymentStateIdle                  PaymentState = "IDLE"
	PaymentStateOrderRequested        PaymentState = "ORDER_REQUESTED"
	PaymentStateAwaitingGatewayResult PaymentState = "AWAITING_GATEWAY_RESULT"
	PaymentStateVerifying             PaymentState = "VERIFYING"
	PaymentStateConfirmed             PaymentState = "CONFIRMED"
	PaymentStateFailed                PaymentState = "FAILED"
	// Recorded when the attempt went back to idle: user dismissal, gateway
	// timeout or an order request the backend refused.
	PaymentStateCancelled PaymentState = "CANCELLED"
	PaymentStateAbandoned PaymentState = "ABANDONED"
)

// Open reports whether an attempt in this state may still produce a booking.
func (s PaymentState) Open() bool {
	switch s {
	case PaymentStateOrderRequested, PaymentStateAwaitingGatewayResult, PaymentStateVerifying:
		return true
	}
	return false
}

var paymentTransitions = map[PaymentState][]PaymentState{
	PaymentStateIdle:                  {PaymentStateOrderRequested},
	PaymentStateOrderRequested:        {PaymentStateAwaitingGatewayResult, PaymentStateCancelled, PaymentStateAbandoned},
	PaymentStateAwaitingGatewayResult: {PaymentStateVerifying, PaymentStateFailed, PaymentStateCancelled, PaymentStateAbandoned},
	PaymentStateVerifying:             {PaymentStateConfirmed, PaymentStateFailed},
}

// CanTransition reports whether the payment state machine allows from → to.
func CanTransition(from, to PaymentState) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckoutAttempt is one pass through the payment state machine. It is
// persisted so that the browser can poll it and stale attempts can expire.
type CheckoutAttempt struct {
	ID            string       `json:"id"`
	SessionID     string       `json:"session_id"`
	CarID         string       `json:"car_id"`
	Window        RentalWindow `json:"window"`
	TierID        TierID       `json:"tier_id"`
	PlanName      string       `json:"plan_name"`
	Amount        float64      `json:"amount"`
	State         PaymentState `json:"state"`
	OrderID       string       `json:"order_id,omitempty"`
	Currency      string       `json:"currency,omitempty"`
	BookingID     string       `json:"booking_id,omitempty"`
	FailureKind   FailureKind  `json:"failure_kind,omitempty"`
	FailureReason string       `json:"failure_reason,omitempty"`
	CreatedOn     time.Time    `json:"created_on"`
	UpdatedOn     time.Time    `json:"updated_on"`
}
