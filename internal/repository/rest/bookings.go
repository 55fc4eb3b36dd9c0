package rest

import (
	"context"
	"errors"
	"net/http"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/repository"
)

type bookingRepository struct {
	client *Client
}

func NewBookingRepository(client *Client) repository.BookingRepository {
	return &bookingRepository{client: client}
}

type orderData struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (r *bookingRepository) CreateOrder(ctx context.Context, token string, req domain.OrderRequest) (*domain.PaymentOrder, error) {
	env, err := r.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/bookings/create-order",
		token:    token,
		body:     req,
		fallback: "Failed to create payment order",
	})
	if err != nil {
		return nil, err
	}
	var data orderData
	if err := decodeData(env, &data); err != nil {
		return nil, err
	}
	if data.ID == "" {
		return nil, &APIError{StatusCode: http.StatusBadGateway, Message: "Payment order was not created"}
	}
	return &domain.PaymentOrder{
		OrderID:    data.ID,
		Amount:     data.Amount,
		Currency:   data.Currency,
		GatewayKey: env.KeyID,
	}, nil
}

// VerifyPayment returns a result for any answer the backend gave, including
// {success:false}. An error means no verdict was obtained at all.
func (r *bookingRepository) VerifyPayment(ctx context.Context, token string, req domain.VerificationRequest) (*domain.VerificationResult, error) {
	env, err := r.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/bookings/verify-payment",
		token:    token,
		body:     req,
		fallback: "Payment verification failed",
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return &domain.VerificationResult{Success: false, Message: apiErr.Message}, nil
		}
		return nil, err
	}
	return &domain.VerificationResult{Success: true, BookingID: env.BookingID, Message: env.Message}, nil
}

func (r *bookingRepository) ListMine(ctx context.Context, token string) ([]domain.Booking, error) {
	env, err := r.client.do(ctx, request{
		method:   http.MethodGet,
		path:     "/bookings/my-bookings",
		token:    token,
		fallback: "Failed to load bookings",
	})
	if err != nil {
		return nil, err
	}
	var bookings []domain.Booking
	if err := decodeData(env, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
