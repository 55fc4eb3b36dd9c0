package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"doorcars-storefront/internal/config"
	"doorcars-storefront/internal/jobs"
	"doorcars-storefront/internal/logger"
	"doorcars-storefront/internal/repository/postgres"
	"doorcars-storefront/internal/scheduler"
	"doorcars-storefront/internal/security"
	"doorcars-storefront/internal/service"
)

// The cronjob runs the storage housekeeping jobs for deployments that start
// the server with -jobs=false. Quote pruning needs the server's memory and
// only runs in-process.
func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'expire-checkout-attempts', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Door Cars Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)

	sealer, err := security.NewSealer(cfg.Session.Secret)
	if err != nil {
		log.Fatalf("Failed to initialize token sealer: %v", err)
	}
	sessionSvc := service.NewSessionService(store.SessionRepository, sealer, security.NewTokenInspector(), cfg.SessionTTL())

	alerter := service.NewSupportAlerter(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName, cfg.SendGrid.SupportEmail)

	jobRunner := jobs.NewJobRunner(store.CheckoutAttemptRepository, &jobs.Services{
		Sessions: sessionSvc,
		Alerter:  alerter,
	}, cfg)

	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "expire-checkout-attempts":
		jobRunner.ExpireCheckoutAttempts()
	case "purge-expired-sessions":
		jobRunner.PurgeExpiredSessions()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - expire-checkout-attempts\n")
		fmt.Printf("  - purge-expired-sessions\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
