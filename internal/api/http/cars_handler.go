package http

import (
	"net/http"
	"time"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/service"
	"doorcars-storefront/internal/utils"

	"github.com/gorilla/mux"
)

type CarHandler struct {
	cars   service.CarService
	quotes service.QuoteService
	loc    *time.Location
}

func NewCarHandler(cars service.CarService, quotes service.QuoteService, loc *time.Location) *CarHandler {
	return &CarHandler{cars: cars, quotes: quotes, loc: loc}
}

// listedCar is a listing card: the car plus the detail link it opens.
type listedCar struct {
	domain.Car
	DetailLink string `json:"detailLink"`
}

type carListResponse struct {
	Cars          []listedCar `json:"cars"`
	DurationError string      `json:"durationError,omitempty"`
}

func (h *CarHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.CarFilter{
		City:         q.Get("city"),
		StartDate:    q.Get("startDate"),
		EndDate:      q.Get("endDate"),
		Category:     q.Get("category"),
		FuelType:     q.Get("fuelType"),
		Transmission: q.Get("transmission"),
		MinPrice:     q.Get("minPrice"),
		MaxPrice:     q.Get("maxPrice"),
	}

	listing, err := h.cars.ListCars(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	tier, _ := domain.ParseTierID(q.Get("tier"))
	resp := carListResponse{Cars: make([]listedCar, 0, len(listing.Cars)), DurationError: listing.DurationError}
	for _, c := range listing.Cars {
		resp.Cars = append(resp.Cars, listedCar{
			Car:        c,
			DetailLink: utils.BuildDetailLink(c, filter.StartDate, filter.EndDate, tier),
		})
	}
	writeData(w, http.StatusOK, resp)
}

func (h *CarHandler) Featured(w http.ResponseWriter, r *http.Request) {
	cars, err := h.cars.FeaturedCars(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, cars)
}

func (h *CarHandler) Cities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.cars.Cities(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, cities)
}

// Detail answers a detail page load. The window and tier hint come from the
// listing link.
func (h *CarHandler) Detail(w http.ResponseWriter, r *http.Request) {
	params, err := utils.ParseDetailParams(r.URL.Query(), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	detail, err := h.cars.GetCarDetail(r.Context(), mux.Vars(r)["id"], params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, detail)
}

type quoteRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Tier      string `json:"tier,omitempty"`
	Page      string `json:"page,omitempty"`
}

// Quote prices a window for the detail page. A request overtaken by a newer
// one from the same page answers 409 and the browser drops it.
func (h *CarHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
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

	quote, err := h.quotes.Quote(r.Context(), pageKey(r, req.Page), mux.Vars(r)["id"], window, hint)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, quote)
}

// pageKey identifies the detail page whose quote requests supersede each
// other: the session when there is one, else the page id the browser sent.
func pageKey(r *http.Request, page string) string {
	if id := SessionIDFromContext(r.Context()); id != "" {
		return id + ":" + mux.Vars(r)["id"]
	}
	if page != "" {
		return "page:" + page
	}
	return "addr:" + r.RemoteAddr
}
