package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"troop-backend/internal/bootstrap"
	"troop-backend/internal/config"
	"troop-backend/internal/jobs"
	"troop-backend/internal/logger"
	"troop-backend/internal/scheduler"
	"troop-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (SendPendingDigest, ReconcileApprovedRequests, PurgeRejectedRequests or all)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Troop Cronjob Runner...", "log_level", cfg.Log.Level)

	ctx := context.Background()
	app, err := bootstrap.FirebaseApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Initialize Repositories
	store, err := bootstrap.OpenStore(ctx, cfg, app)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	idp, _, err := bootstrap.Identity(ctx, cfg, app)
	if err != nil {
		log.Fatalf("Failed to initialize identity provider: %v", err)
	}
	deliverer, err := bootstrap.Deliverer(ctx, cfg, bootstrap.Webhook(cfg))
	if err != nil {
		log.Fatalf("Failed to initialize email delivery: %v", err)
	}

	// Initialize Services
	settingsSvc := service.NewSettingsService(store.Settings)
	noteSvc := service.NewNotificationService(store.Notifications, store.Users)
	emailSvc := service.NewEmailQueueService(deliverer, settingsSvc)
	authSvc := service.NewAuthService(store.Users, store.Requests, idp, emailSvc, noteSvc)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(
		&jobs.Repositories{Users: store.Users, Requests: store.Requests},
		&jobs.Services{Auth: authSvc, Emails: emailSvc},
		cfg,
	)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := jobRunner.Run(*runOnce); err != nil {
			logger.Error("Job failed", "job", *runOnce, "error", err)
			fmt.Fprintf(os.Stderr, "Available jobs: SendPendingDigest, ReconcileApprovedRequests, PurgeRejectedRequests, all\n")
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.", "jobs", cronScheduler.JobCount())

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}
