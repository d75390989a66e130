package main

import (
	"context"
	"errors"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tradeJournal/config"
	"tradeJournal/internal/adapters/httpapi"
	"tradeJournal/internal/adapters/logger"
	"tradeJournal/internal/adapters/sqlite"
	"tradeJournal/internal/app"
	"tradeJournal/internal/scheduler"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewZerologLogger(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Application Service
	journal, err := app.NewJournalService(
		cfg,
		appLogger,
		repo, // trades
		repo, // settings
	)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize journal service")
		log.Fatalf("FATAL: Failed to initialize journal service: %v", err)
	}
	appLogger.Info(context.Background(), "Journal service initialized")

	// 5. Initialize Scheduler (optional nightly export)
	sched := scheduler.New(appLogger.Zerolog(), cfg.Location)
	if cfg.ExportSchedule != "" {
		job := &scheduler.ExportJob{
			Source: journal,
			Dir:    cfg.ExportDir,
			Log:    appLogger.Zerolog().With().Str("job", "export").Logger(),
		}
		if err := sched.AddJob(cfg.ExportSchedule, job); err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to register export job")
			log.Fatalf("FATAL: Failed to register export job: %v", err)
		}
	}
	sched.Start()

	// 6. Start HTTP Server
	server := httpapi.New(httpapi.Config{
		Port:           cfg.HTTPPort,
		Log:            appLogger.Zerolog(),
		Service:        journal,
		Timeout:        cfg.HTTPTimeout,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		DevMode:        cfg.LogPretty,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// 7. Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		appLogger.Info(context.Background(), "Shutdown signal received", map[string]interface{}{"signal": sig.String()})
	case err, ok := <-serverErr:
		if ok {
			appLogger.Error(context.Background(), err, "HTTP server exited with error")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error(context.Background(), err, "Error shutting down HTTP server")
	}
	sched.Stop()

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
