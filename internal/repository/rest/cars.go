package rest

import (
	"context"
	"net/http"
	"net/url"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/repository"
)

type carRepository struct {
	client *Client
}

func NewCarRepository(client *Client) repository.CarRepository {
	return &carRepository{client: client}
}

func (r *carRepository) List(ctx context.Context, filter domain.CarFilter) ([]domain.Car, error) {
	path := "/cars"
	if q := filterQuery(filter).Encode(); q != "" {
		path += "?" + q
	}
	env, err := r.client.do(ctx, request{method: http.MethodGet, path: path, fallback: "Failed to load cars"})
	if err != nil {
		return nil, err
	}
	var cars []domain.Car
	if err := decodeData(env, &cars); err != nil {
		return nil, err
	}
	return cars, nil
}

func (r *carRepository) Featured(ctx context.Context) ([]domain.Car, error) {
	env, err := r.client.do(ctx, request{method: http.MethodGet, path: "/cars/featured", fallback: "Failed to load featured cars"})
	if err != nil {
		return nil, err
	}
	var cars []domain.Car
	if err := decodeData(env, &cars); err != nil {
		return nil, err
	}
	return cars, nil
}

func (r *carRepository) GetByID(ctx context.Context, id string) (*domain.Car, error) {
	env, err := r.client.do(ctx, request{
		method:   http.MethodGet,
		path:     "/cars/" + url.PathEscape(id),
		fallback: "Car not found or unavailable",
	})
	if err != nil {
		return nil, err
	}
	car := &domain.Car{}
	if err := decodeData(env, car); err != nil {
		return nil, err
	}
	return car, nil
}

func (r *carRepository) Cities(ctx context.Context) ([]string, error) {
	env, err := r.client.do(ctx, request{method: http.MethodGet, path: "/cars/cities", fallback: "Failed to load cities"})
	if err != nil {
		return nil, err
	}
	var cities []string
	if err := decodeData(env, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

type calculatePriceRequest struct {
	CarID     string `json:"carId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type calculatePriceResponse struct {
	PricingTiers []domain.PricingTier `json:"pricingTiers"`
}

func (r *carRepository) CalculatePrice(ctx context.Context, carID string, window domain.RentalWindow) ([]domain.PricingTier, error) {
	env, err := r.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/cars/calculate-price",
		body: calculatePriceRequest{
			CarID:     carID,
			StartDate: window.StartParam(),
			EndDate:   window.EndParam(),
		},
		fallback: "Failed to calculate price",
	})
	if err != nil {
		return nil, err
	}
	var res calculatePriceResponse
	if err := decodeData(env, &res); err != nil {
		return nil, err
	}
	return res.PricingTiers, nil
}

func filterQuery(f domain.CarFilter) url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("city", f.City)
	set("startDate", f.StartDate)
	set("endDate", f.EndDate)
	set("category", f.Category)
	set("fuelType", f.FuelType)
	set("transmission", f.Transmission)
	set("minPrice", f.MinPrice)
	set("maxPrice", f.MaxPrice)
	return q
}
