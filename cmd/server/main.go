package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	_ "github.com/lib/pq"

	httpapi "rentify-backend/internal/api/http"
	"rentify-backend/internal/config"
	"rentify-backend/internal/logger"
	"rentify-backend/internal/repository/postgres"
	"rentify-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rentify Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
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

	// Initialize Email Service
	var emailSvc service.EmailService
	if cfg.Email.Enabled {
		logger.Info("Email sending enabled", "from", cfg.Email.FromEmail)
		emailSvc = service.NewEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	} else {
		logger.Info("Email sending disabled")
		emailSvc = service.NewNoopEmailService()
	}

	// Initialize Services
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
	notificationSvc := service.NewNotificationService(store.NotificationRepository)

	// Set up HTTP server
	router := httpapi.NewRouter(reservationSvc, invoiceSvc, notificationSvc)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
