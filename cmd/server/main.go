package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "doorcars-storefront/internal/api/http"
	"doorcars-storefront/internal/config"
	"doorcars-storefront/internal/gateway"
	"doorcars-storefront/internal/jobs"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository/postgres"
	"doorcars-storefront/internal/repository/rest"
	"doorcars-storefront/internal/scheduler"
	"doorcars-storefront/internal/security"
	"doorcars-storefront/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	withJobs := flag.Bool("jobs", true, "Run the housekeeping jobs inside the server")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Door Cars Storefront...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "allowed_origins", cfg.Server.AllowedOrigins)
	logger.Info("Backend configuration", "base_url", cfg.Backend.BaseURL, "timeout", cfg.BackendTimeout())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Repositories
	store := postgres.NewStore(db)
	client := rest.NewClient(cfg.Backend.BaseURL, cfg.BackendTimeout(), cfg.Backend.RequestsPerSecond, cfg.Backend.Burst)
	carRepo := rest.NewCarRepository(client)
	bookingRepo := rest.NewBookingRepository(client)
	userRepo := rest.NewUserRepository(client)

	// Initialize Security
	sealer, err := security.NewSealer(cfg.Session.Secret)
	if err != nil {
		log.Fatalf("Failed to initialize token sealer: %v", err)
	}

	// Initialize Services
	loc := cfg.Location()
	minDuration := cfg.MinRentalDuration()
	sessionSvc := service.NewSessionService(store.SessionRepository, sealer, security.NewTokenInspector(), cfg.SessionTTL())
	authSvc := service.NewAuthService(userRepo, sessionSvc)
	profileSvc := service.NewProfileService(userRepo, sessionSvc)
	carSvc := service.NewCarService(carRepo, minDuration, loc)
	quoteSvc := service.NewQuoteService(carRepo, minDuration, cfg.QuoteDebounce())
	hub := gateway.NewHub(cfg.GatewayTimeout())
	alerter := service.NewSupportAlerter(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName, cfg.SendGrid.SupportEmail)
	orchestrator := service.NewPaymentOrchestrator(
		bookingRepo,
		store.CheckoutAttemptRepository,
		sessionSvc,
		hub,
		alerter,
		cfg.Checkout.MerchantName,
	)
	bookingSvc := service.NewBookingService(
		carSvc,
		quoteSvc,
		service.NewEligibilityService(sessionSvc),
		orchestrator,
		sessionSvc,
		bookingRepo,
		store.CheckoutAttemptRepository,
		minDuration,
	)

	// Checkouts outlive their requests but not the server
	background, cancelCheckouts := context.WithCancel(context.Background())
	defer cancelCheckouts()

	router := httpapi.NewRouter(httpapi.Services{
		Auth:     authSvc,
		Sessions: sessionSvc,
		Profiles: profileSvc,
		Cars:     carSvc,
		Quotes:   quoteSvc,
		Bookings: bookingSvc,
		Gateway:  hub,
	}, httpapi.RouterConfig{
		Cookie:         httpapi.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.Secure},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Location:       loc,
		Background:     background,
		Health:         store.Ping,
	})

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var cronScheduler *scheduler.Scheduler
	if *withJobs {
		runner := jobs.NewJobRunner(store.CheckoutAttemptRepository, &jobs.Services{
			Sessions: sessionSvc,
			Alerter:  alerter,
			Quotes:   quoteSvc,
			Orders:   hub,
		}, cfg)
		cronScheduler = scheduler.NewScheduler(runner)
		cronScheduler.Start()
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down HTTP server", "error", err)
	}
	// open checkouts end as ABANDONED
	cancelCheckouts()
	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	logger.Info("Storefront stopped. Goodbye!")
}
