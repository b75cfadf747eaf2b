package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"payhub-backend/internal/config"
	"payhub-backend/internal/jobs"
	"payhub-backend/internal/logger"
	"payhub-backend/internal/repository/postgres"
	"payhub-backend/internal/scheduler"
	"payhub-backend/internal/service"
	"payhub-backend/internal/utils"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'audit-ledger-statuses', 'all')")
	flag.Parse()

	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting PayHub Cronjob Runner...", "log_level", cfg.Log.Level)

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
	rule, err := utils.ParseStatusRule(cfg.Payment.StatusRule)
	if err != nil {
		log.Fatalf("Invalid status rule: %v", err)
	}
	ledgerService := service.NewLedgerService(
		store.LedgerRepository,
		store,
		utils.NewReferenceGenerator(),
		rule,
	)

	jobServices := &jobs.Services{
		Ledger: ledgerService,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store.Repositories(), jobServices, cfg)

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
	case "audit-ledger-statuses":
		jobRunner.AuditLedgerStatuses()
	case "purge-idempotency-records":
		jobRunner.PurgeIdempotencyRecords()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - audit-ledger-statuses\n")
		fmt.Printf("  - purge-idempotency-records\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
