package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository"
	"doorcars-storefront/internal/repository/rest"
	"doorcars-storefront/internal/utils"

	"golang.org/x/sync/errgroup"
)

type carService struct {
	carRepo     repository.CarRepository
	minDuration time.Duration
	loc         *time.Location
}

func NewCarService(carRepo repository.CarRepository, minDuration time.Duration, loc *time.Location) CarService {
	return &carService{
		carRepo:     carRepo,
		minDuration: minDuration,
		loc:         loc,
	}
}

// ListCars returns the cars matching filter, minus those under maintenance.
// A listing window that is too short is reported alongside the cars.
func (s *carService) ListCars(ctx context.Context, filter domain.CarFilter) (*domain.CarListing, error) {
	listing := &domain.CarListing{}

	if filter.StartDate != "" && filter.EndDate != "" {
		w, err := utils.ParseRentalWindow(filter.StartDate, filter.EndDate, s.loc)
		if err != nil {
			return nil, err
		}
		if err := utils.ValidateRentalWindow(w, s.minDuration); err != nil {
			listing.DurationError = err.Error()
		}
		// The remote API expects the full local date-time.
		filter.StartDate = w.StartParam()
		filter.EndDate = w.EndParam()
	}

	cars, err := s.carRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	listing.Cars = available(cars)
	return listing, nil
}

func (s *carService) FeaturedCars(ctx context.Context) ([]domain.Car, error) {
	cars, err := s.carRepo.Featured(ctx)
	if err != nil {
		return nil, err
	}
	return available(cars), nil
}

func (s *carService) Cities(ctx context.Context) ([]string, error) {
	return s.carRepo.Cities(ctx)
}

func (s *carService) GetCar(ctx context.Context, id string) (*domain.Car, error) {
	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		var apiErr *rest.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, domain.ErrCarUnavailable
		}
		return nil, err
	}
	if car.UnderMaintenance() {
		return nil, domain.ErrCarUnavailable
	}
	return car, nil
}

// GetCarDetail loads the car and the city list together.
func (s *carService) GetCarDetail(ctx context.Context, id string, params utils.DetailParams) (*domain.CarDetail, error) {
	var car *domain.Car
	var cities []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.GetCar(gctx, id)
		if err != nil {
			return err
		}
		car = c
		return nil
	})
	g.Go(func() error {
		c, err := s.carRepo.Cities(gctx)
		if err != nil {
			// the page still works without the city picker
			logger.Warn("Failed to load cities for detail page", "car_id", id, "error", err)
			return nil
		}
		cities = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.CarDetail{
		Car:    *car,
		Cities: cities,
		Window: params.Window,
		Hint:   params.Hint,
	}, nil
}

func available(cars []domain.Car) []domain.Car {
	out := make([]domain.Car, 0, len(cars))
	for _, c := range cars {
		if !c.UnderMaintenance() {
			out = append(out, c)
		}
	}
	return out
}
