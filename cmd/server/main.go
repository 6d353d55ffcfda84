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

	"google.golang.org/grpc"

	grpcapi "gearloan-backend/internal/api/grpc"
	"gearloan-backend/internal/api/grpc/interceptor"
	httpapi "gearloan-backend/internal/api/http"
	"gearloan-backend/internal/app"
	"gearloan-backend/internal/config"
	"gearloan-backend/internal/jobs"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/scheduler"
	"gearloan-backend/internal/security"
	"gearloan-backend/internal/service"
	"gearloan-backend/internal/storage"
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
	logger.Info("Starting Gearloan Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())
	logger.Info("Booking configuration", "timezone", cfg.Booking.Timezone, "currency", cfg.Booking.Currency)

	ctx := context.Background()

	// Initialize store
	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "driver", cfg.Database.Driver, "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	// Initialize photo storage
	baseURL := cfg.Storage.BaseURL
	if baseURL == "" {
		baseURL = "http://" + cfg.GetServerAddress()
	}
	photos, err := storage.NewLocalStorage(baseURL, cfg.Storage.UploadDir, cfg.Storage.MaxFileSize<<20, cfg.Storage.AllowedTypes)
	if err != nil {
		logger.Error("Failed to initialize photo storage", "upload_dir", cfg.Storage.UploadDir, "error", err)
		log.Fatalf("Failed to initialize photo storage: %v", err)
	}
	logger.Info("Photo storage ready", "upload_dir", cfg.Storage.UploadDir, "base_url", baseURL)

	// Initialize Services
	handlers := &httpapi.Handlers{
		Auth:     service.NewAuthService(store, tokenManager),
		Items:    service.NewItemService(store),
		Bookings: service.NewBookingService(store, time.Now, cfg.Booking.Location()),
		Users:    service.NewUserService(store),
		Health:   store,
	}

	router := httpapi.NewRouter(handlers, httpapi.NewUploadHandler(photos), httpapi.NewAuthMiddleware(tokenManager))
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health endpoint, probed by the in-process scheduler
	reporter := grpcapi.NewHealthReporter(store)
	var grpcServer *grpc.Server
	if addr := cfg.GetGRPCAddress(); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", addr)
			log.Fatalf("Failed to listen: %v", err)
		}
		grpcServer = grpcapi.NewServer(reporter, interceptor.ServerOptions()...)
		go func() {
			logger.Info("gRPC health server listening", "address", addr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "error", err)
			}
		}()
	}

	runner := jobs.NewJobRunner(store, cfg, jobs.WithHealthProbe(reporter.Probe))
	probes := scheduler.NewScheduler(runner, scheduler.JobHealthProbe)
	probes.RunOnce(scheduler.JobHealthProbe)
	probes.Start()

	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down server...", "timeout_seconds", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	probes.Stop()
	reporter.Shutdown()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
