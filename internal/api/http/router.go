package http

import (
	"context"
	"net/http"
	"time"

	"doorcars-storefront/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Services is everything the HTTP API is built on.
type Services struct {
	Auth     service.AuthService
	Sessions service.SessionService
	Profiles service.ProfileService
	Cars     service.CarService
	Quotes   service.QuoteService
	Bookings service.BookingService
	Gateway  GatewayCallbacks
}

type RouterConfig struct {
	Cookie         CookieConfig
	AllowedOrigins []string
	Location       *time.Location
	// Background bounds checkouts that outlive their request.
	Background context.Context
	// Health reports whether the storefront's own storage is reachable.
	Health func(ctx context.Context) error
}

// NewRouter wires every route. Route names are the keys of
// config.RouteSecurityConfig.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	cars := NewCarHandler(svc.Cars, svc.Quotes, cfg.Location)
	checkout := NewCheckoutHandler(cfg.Background, svc.Bookings, svc.Gateway, cfg.Location)
	auth := NewAuthHandler(svc.Auth, cfg.Cookie)
	profile := NewProfileHandler(svc.Profiles, svc.Bookings)
	sessions := NewSessionMiddleware(svc.Sessions, cfg.Cookie.Name)

	router := mux.NewRouter()
	router.Use(RequestLogger, sessions.Handler)

	router.HandleFunc("/health", healthHandler(cfg.Health)).Methods(http.MethodGet).Name("health")

	api := router.PathPrefix("/api").Subrouter()

	// Catalogue
	api.HandleFunc("/cars", cars.List).Methods(http.MethodGet).Name("cars.list")
	api.HandleFunc("/cars/featured", cars.Featured).Methods(http.MethodGet).Name("cars.featured")
	api.HandleFunc("/cars/cities", cars.Cities).Methods(http.MethodGet).Name("cars.cities")
	api.HandleFunc("/cars/{id}", cars.Detail).Methods(http.MethodGet).Name("cars.detail")
	api.HandleFunc("/cars/{id}/quote", cars.Quote).Methods(http.MethodPost).Name("cars.quote")

	// Checkout
	api.HandleFunc("/cars/{id}/book", checkout.Book).Methods(http.MethodPost).Name("cars.book")
	api.HandleFunc("/checkout/attempts/{id}", checkout.Attempt).Methods(http.MethodGet).Name("checkout.attempt")
	api.HandleFunc("/checkout/{orderId}/callback", checkout.Callback).Methods(http.MethodPost).Name("checkout.callback")
	api.HandleFunc("/checkout/{orderId}/dismiss", checkout.Dismiss).Methods(http.MethodPost).Name("checkout.dismiss")
	api.HandleFunc("/checkout/{orderId}/failure", checkout.Failure).Methods(http.MethodPost).Name("checkout.failure")

	// Auth
	api.HandleFunc("/users/login", auth.Login).Methods(http.MethodPost).Name("auth.login")
	api.HandleFunc("/users/register", auth.Register).Methods(http.MethodPost).Name("auth.register")
	api.HandleFunc("/users/verify-email", auth.VerifyEmail).Methods(http.MethodPost).Name("auth.verify_email")
	api.HandleFunc("/users/resend-otp", auth.ResendOTP).Methods(http.MethodPost).Name("auth.resend_otp")
	api.HandleFunc("/users/logout", auth.Logout).Methods(http.MethodPost).Name("auth.logout")

	// Profile and bookings
	api.HandleFunc("/users/profile", profile.Get).Methods(http.MethodGet).Name("profile.get")
	api.HandleFunc("/users/profile", profile.Update).Methods(http.MethodPut).Name("profile.update")
	api.HandleFunc("/users/upload-documents", profile.UploadDocuments).Methods(http.MethodPost).Name("profile.documents")
	api.HandleFunc("/bookings/my-bookings", profile.MyBookings).Methods(http.MethodGet).Name("bookings.mine")

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "storage unavailable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
