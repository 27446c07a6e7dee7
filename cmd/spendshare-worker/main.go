package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"spendshare/internal/amqp"
	"spendshare/internal/config"
	"spendshare/internal/layout"
	applog "spendshare/internal/log"
	"spendshare/internal/remote"
	"spendshare/internal/sheets"
	gsheet "spendshare/internal/sheets/google"
	"spendshare/internal/storage"
	"spendshare/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging (LOG_LEVEL / LOG_FORMAT)
	logger := applog.NewFromEnv(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting spendshare-worker")

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The worker drains the durable sync queue, so it always runs on SQLite
	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	// Remote layout store for pushing dirty layouts (optional)
	var remoteStore layout.RemoteStore
	if cfg.RemoteLayoutURL != "" {
		remoteStore = remote.NewClient(cfg.RemoteLayoutURL, cfg.RemoteLayoutTimeout)
		logger.Info("Remote layout store configured", "url", cfg.RemoteLayoutURL)
	} else {
		logger.Info("Remote layout sync disabled - no REMOTE_LAYOUT_URL provided")
	}

	// Google Sheets exporter for expense exports (optional)
	var exporter sheets.ExpenseWriter
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.New(context.Background(), *cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = sheetsClient
		logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// Initialize AMQP client for consuming messages
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncWorker := worker.NewSyncWorker(sqliteRepo, remoteStore, exporter, cfg.SyncBatchSize)

	// On startup, drain anything queued while the worker was down
	logger.Info("Performing startup catch-up...")
	if err := syncWorker.StartupCatchUp(ctx); err != nil {
		logger.Error("Startup catch-up failed", "error", err)
		// Don't exit - continue with normal operation
	}

	// Start message consumption
	go func() {
		if err := amqpClient.Consume(ctx, syncWorker.Handlers()); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Periodic sweeps pick up rows whose messages were lost
	go syncWorker.RunPeriodicSweeps(ctx, cfg.SyncInterval)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Give worker time to finish current operations
	logger.Info("Shutting down worker...")
	cancel()

	// Wait for shutdown or timeout
	select {
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout reached")
	case <-time.After(5 * time.Second):
		logger.Info("Worker shutdown complete")
	}
}
