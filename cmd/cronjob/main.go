package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"motorent-backend/internal/config"
	"motorent-backend/internal/jobs"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/repository/postgres"
	"motorent-backend/internal/scheduler"
	"motorent-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'reconcile-reservations', 'send-return-reminders', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting MotoRent Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := postgres.Open(context.Background(), cfg.GetDatabaseConnectionString(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services. Reminders are stored for in-app delivery and
	// emailed; live push belongs to the API server.
	opts := service.LifecycleOptions{
		DepositBasisPoints: cfg.Lifecycle.DepositBasisPoints,
		Currency:           cfg.Lifecycle.Currency,
		StoreTimeout:       cfg.Lifecycle.StoreTimeout(),
	}
	emailSvc := service.NewEmailService(cfg.Email.SendGridAPIKey, cfg.Email.FromAddress, cfg.Email.FromName)
	availabilitySvc := service.NewAvailabilityService(store.UnitRepository, store.ReservationRepository, opts.StoreTimeout)
	paymentSvc := service.NewPaymentService(store.ReservationRepository, store.TransactionRepository, store.PaymentRepository, opts)
	noteSvc := service.NewNotificationService(store.NotificationRepository, nil, emailSvc, opts.StoreTimeout)
	licenses := service.NewLicenseVerifier(store.RenterRepository, cfg.Lifecycle.LicenseCacheTTL())

	jobServices := &jobs.Services{
		Reservation: service.NewReservationService(store.ReservationRepository, availabilitySvc, paymentSvc, noteSvc, licenses, opts),
		Reconcile:   service.NewReconcileService(store.ReservationRepository, availabilitySvc, paymentSvc, opts.StoreTimeout),
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to register cron jobs: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "reconcile-reservations":
		jobRunner.ReconcileReservations()
	case "send-return-reminders":
		jobRunner.SendReturnReminders()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - reconcile-reservations\n")
		fmt.Printf("  - send-return-reminders\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
