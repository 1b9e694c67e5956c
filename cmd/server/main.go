package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	healthgrpc "troop-backend/internal/api/grpc"
	httpapi "troop-backend/internal/api/http"
	"troop-backend/internal/bootstrap"
	"troop-backend/internal/config"
	"troop-backend/internal/google"
	"troop-backend/internal/logger"
	"troop-backend/internal/service"
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
	logger.Info("Starting Troop Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "store", cfg.Store.Type, "auth", cfg.Auth.Provider, "email_delivery", cfg.Email.Delivery)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	// Initialize Identity
	idp, local, err := bootstrap.Identity(ctx, cfg, app)
	if err != nil {
		log.Fatalf("Failed to initialize identity provider: %v", err)
	}

	// Initialize external clients
	hook := bootstrap.Webhook(cfg)
	deliverer, err := bootstrap.Deliverer(ctx, cfg, hook)
	if err != nil {
		log.Fatalf("Failed to initialize email delivery: %v", err)
	}
	calendarClient, err := google.NewCalendarClient(ctx, cfg.Google.APIKey, cfg.Google.CalendarID, cfg.Google.FallbackCalendarID)
	if err != nil {
		log.Fatalf("Failed to initialize calendar client: %v", err)
	}
	var sheets service.SheetReader
	if cfg.Google.SheetID != "" {
		sheetsClient, err := google.NewSheetsClient(ctx, cfg.Google.APIKey, cfg.Google.SheetID, cfg.Google.EmailQueueRange)
		if err != nil {
			log.Fatalf("Failed to initialize sheets client: %v", err)
		}
		sheets = sheetsClient
	}
	var calendarWriter service.CalendarWriter
	if hook != nil {
		calendarWriter = hook
	}

	// Initialize Services
	settingsSvc := service.NewSettingsService(store.Settings)
	noteSvc := service.NewNotificationService(store.Notifications, store.Users)
	emailSvc := service.NewEmailQueueService(deliverer, settingsSvc)
	authSvc := service.NewAuthService(store.Users, store.Requests, idp, emailSvc, noteSvc)
	calendarSvc := service.NewCalendarService(calendarClient, calendarWriter, cfg.Google.CalendarName)
	contactSvc := service.NewContactService(store.Contacts, sheets, cfg.Google.ContactsRange)

	var signIn httpapi.PasswordSignIn
	if local != nil {
		signIn = local
	}
	router := httpapi.NewRouter(httpapi.Services{
		Auth:          authSvc,
		Calendar:      calendarSvc,
		Contacts:      contactSvc,
		Notifications: noteSvc,
		Settings:      settingsSvc,
	}, idp, signIn, httpapi.NewRateLimiter(cfg.RateLimit.RegistrationsPerMinute, cfg.RateLimit.Burst, cfg.RateLimit.TrustProxy))

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health service for the load balancer
	var health *healthgrpc.Server
	if cfg.Server.HealthPort != 0 {
		lis, err := net.Listen("tcp", cfg.GetHealthAddress())
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", cfg.GetHealthAddress())
			log.Fatalf("Failed to listen: %v", err)
		}
		health = healthgrpc.NewServer(func(ctx context.Context) error {
			_, err := settingsSvc.GetSettings(ctx)
			return err
		}, 30*time.Second)
		go func() {
			logger.Info("gRPC health server listening", "address", cfg.GetHealthAddress())
			if err := health.Serve(lis); err != nil {
				logger.Error("gRPC health server error", "error", err)
			}
		}()
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	if health != nil {
		health.Stop()
	}
	logger.Info("Server stopped. Goodbye!")
}
