package domain

import "errors"

var (
	ErrMalformedWindow   = errors.New("rental window end must be after its start")
	ErrWindowTooShort    = errors.New("rental window too short")
	ErrIncompleteWindow  = errors.New("please select start and end dates with time")
	ErrNoPlan            = errors.New("please select a pricing plan")
	ErrMissingLocations  = errors.New("please select a pickup and a drop location")
	ErrQuoteSuperseded   = errors.New("price quote superseded by a newer request")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExpired    = errors.New("session has expired")
	ErrAttemptNotFound   = errors.New("checkout attempt not found")
	ErrCheckoutInFlight  = errors.New("a checkout for this car and window is already in progress")
	ErrNoDocuments       = errors.New("please select a document to upload")
	ErrInvalidTransition = errors.New("invalid payment state transition")
	ErrCarUnavailable    = errors.New("car not found or unavailable")

	// Payment gateway boundary
	ErrPaymentDismissed = errors.New("payment window closed before completion")
	ErrPaymentDeclined  = errors.New("payment declined by gateway")
	ErrUnknownOrder     = errors.New("no checkout is waiting for this order")
	ErrOrderConsumed    = errors.New("order has already been used")
)
