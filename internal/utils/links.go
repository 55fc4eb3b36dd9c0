package utils

import (
	"net/url"
	"time"

	"doorcars-storefront/internal/domain"
)

// DetailParams is what a detail page link carries from the listing page.
type DetailParams struct {
	Window domain.RentalWindow
	Hint   *domain.TierID
}

// ParseDetailParams reads startDate, endDate and tier from a detail page query.
// An unknown tier is dropped rather than reported.
func ParseDetailParams(q url.Values, loc *time.Location) (DetailParams, error) {
	w, err := ParseRentalWindow(q.Get("startDate"), q.Get("endDate"), loc)
	if err != nil {
		return DetailParams{}, err
	}
	p := DetailParams{Window: w}
	if id, ok := domain.ParseTierID(q.Get("tier")); ok {
		p.Hint = &id
	}
	return p, nil
}

// BuildDetailLink returns the detail page path a listing card navigates to.
// Dates and tier are only attached when the listing was priced for a window.
func BuildDetailLink(car domain.Car, startDate, endDate string, tier domain.TierID) string {
	path := "/cars/" + url.PathEscape(car.ID)
	if car.CalculatedPricing == nil || len(car.CalculatedPricing.Tiers) == 0 {
		return path
	}
	q := url.Values{}
	if startDate != "" {
		q.Set("startDate", startDate)
	}
	if endDate != "" {
		q.Set("endDate", endDate)
	}
	if tier == "" {
		tier = domain.DefaultTierID
	}
	q.Set("tier", string(tier))
	return path + "?" + q.Encode()
}

// LoginRedirectPath sends the user to login with a way back to the car.
func LoginRedirectPath(carID string) string {
	return "/login?" + url.Values{"redirect": {"/cars/" + carID}}.Encode()
}
