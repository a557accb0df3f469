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

	"rentify-backend/internal/config"
	"rentify-backend/internal/jobs"
	"rentify-backend/internal/logger"
	"rentify-backend/internal/repository/postgres"
	"rentify-backend/internal/scheduler"
	"rentify-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'mark-overdue-reservations', 'all-nightly')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rentify Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	var emailSvc service.EmailService
	if cfg.Email.Enabled {
		emailSvc = service.NewEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	} else {
		emailSvc = service.NewNoopEmailService()
	}

	reservationSvc := service.NewReservationService(
		store.ReservationRepository,
		store.CarRepository,
		store.CustomerRepository,
		store.InvoiceRepository,
		store.NotificationRepository,
		emailSvc,
		cfg.Billing.Currency,
	)
	invoiceSvc := service.NewInvoiceService(
		store.InvoiceRepository,
		store.ReservationRepository,
		store.CustomerRepository,
		store.NotificationRepository,
		emailSvc,
		cfg.Billing.Currency,
	)

	jobServices := &jobs.Services{
		Reservation: reservationSvc,
		Invoice:     invoiceSvc,
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
	cronScheduler := scheduler.NewScheduler(jobRunner)

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
	case "mark-overdue-reservations":
		jobRunner.MarkOverdueReservations()
	case "send-unpaid-invoice-reminders":
		jobRunner.SendUnpaidInvoiceReminders()
	case "all-nightly":
		jobRunner.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - mark-overdue-reservations\n")
		fmt.Printf("  - send-unpaid-invoice-reminders\n")
		fmt.Printf("  - all-nightly\n")
		os.Exit(1)
	}
}
