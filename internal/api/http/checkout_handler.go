package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/gateway"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/service"
	"doorcars-storefront/internal/utils"

	"github.com/gorilla/mux"
)

// GatewayCallbacks is how the browser's widget handler reaches a checkout
// waiting in the gateway hub.
type GatewayCallbacks interface {
	Complete(orderID string, result domain.PaymentResult) error
	Dismiss(orderID string) error
	Decline(orderID, reason string) error
	Pending(orderID string) (domain.CheckoutOptions, bool)
}

type CheckoutHandler struct {
	bookings service.BookingService
	gateway  GatewayCallbacks
	loc      *time.Location
	// checkouts outlive the request that started them and end with this
	background context.Context
}

func NewCheckoutHandler(background context.Context, bookings service.BookingService, gw GatewayCallbacks, loc *time.Location) *CheckoutHandler {
	return &CheckoutHandler{
		bookings:   bookings,
		gateway:    gw,
		loc:        loc,
		background: background,
	}
}

type bookRequest struct {
	StartDate      string                 `json:"startDate"`
	EndDate        string                 `json:"endDate"`
	Tier           string                 `json:"tier,omitempty"`
	Page           string                 `json:"page,omitempty"`
	PickupLocation *domain.LocationChoice `json:"pickupLocation,omitempty"`
	DropLocation   *domain.LocationChoice `json:"dropLocation,omitempty"`
}

// awaitingPayment tells the browser to open the widget with Checkout and then
// report back to the callback routes.
type awaitingPayment struct {
	Success  bool                   `json:"success"`
	Status   string                 `json:"status"`
	Checkout domain.CheckoutOptions `json:"checkout"`
}

type bookResult struct {
	out *domain.BookingOutcome
	err error
}

// Book handles "Book Now". It answers as soon as either the checkout reaches
// the payment widget or it ends earlier (validation, redirect, order failure).
func (h *CheckoutHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	window, err := utils.ParseRentalWindow(req.StartDate, req.EndDate, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var hint *domain.TierID
	if id, ok := domain.ParseTierID(req.Tier); ok {
		hint = &id
	}

	checkout := service.CheckoutRequest{
		SessionID: SessionIDFromContext(r.Context()),
		PageKey:   pageKey(r, req.Page),
		CarID:     mux.Vars(r)["id"],
		Window:    window,
		Hint:      hint,
		Locations: domain.LocationSelection{Pickup: req.PickupLocation, Drop: req.DropLocation},
	}

	opened := make(chan domain.CheckoutOptions, 1)
	done := make(chan bookResult, 1)
	// Until the widget opens the checkout belongs to this request. Afterwards
	// the browser's callbacks own it and it runs on until the gateway answers.
	ctx, cancel := context.WithCancel(h.background)
	ctx = gateway.WithOpenNotifier(ctx, func(opts domain.CheckoutOptions) {
		opened <- opts
	})
	go func() {
		defer cancel()
		out, err := h.bookings.Checkout(ctx, checkout)
		done <- bookResult{out: out, err: err}
	}()

	select {
	case opts := <-opened:
		writeJSON(w, http.StatusAccepted, awaitingPayment{
			Success:  true,
			Status:   string(domain.PaymentStateAwaitingGatewayResult),
			Checkout: opts,
		})
	case res := <-done:
		if res.err != nil {
			writeServiceError(w, res.err)
			return
		}
		writeOutcome(w, res.out)
	case <-r.Context().Done():
		cancel()
		logger.Info("Client left before checkout opened, aborting", "car_id", checkout.CarID)
	}
}

type callbackAccepted struct {
	Success   bool   `json:"success"`
	AttemptID string `json:"attemptId"`
}

// Callback receives the widget's payment result. Verification runs in the
// background; the browser polls the attempt for the outcome.
func (h *CheckoutHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var result domain.PaymentResult
	if err := decodeJSON(w, r, &result); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.settle(w, r, func(orderID string) error {
		return h.gateway.Complete(orderID, result)
	})
}

func (h *CheckoutHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, h.gateway.Dismiss)
}

type failureRequest struct {
	Reason string `json:"reason"`
}

func (h *CheckoutHandler) Failure(w http.ResponseWriter, r *http.Request) {
	var req failureRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.settle(w, r, func(orderID string) error {
		return h.gateway.Decline(orderID, req.Reason)
	})
}

// settle checks that the order belongs to the caller's session before
// handing the widget's answer to the hub.
func (h *CheckoutHandler) settle(w http.ResponseWriter, r *http.Request, fn func(orderID string) error) {
	orderID := mux.Vars(r)["orderId"]
	opts, ok := h.gateway.Pending(orderID)
	if !ok {
		writeServiceError(w, domain.ErrUnknownOrder)
		return
	}
	if _, err := h.bookings.GetAttempt(r.Context(), SessionIDFromContext(r.Context()), opts.AttemptID); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := fn(orderID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, callbackAccepted{Success: true, AttemptID: opts.AttemptID})
}

type attemptResponse struct {
	*domain.CheckoutAttempt
	Open        bool   `json:"open"`
	SuccessPath string `json:"successPath,omitempty"`
}

// Attempt reports where a checkout attempt stands.
func (h *CheckoutHandler) Attempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.bookings.GetAttempt(r.Context(), SessionIDFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := attemptResponse{CheckoutAttempt: attempt, Open: attempt.State.Open()}
	if attempt.State == domain.PaymentStateConfirmed {
		resp.SuccessPath = domain.Confirmed(attempt.ID, attempt.BookingID).SuccessPath()
	}
	writeData(w, http.StatusOK, resp)
}
