package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"spendshare/internal/amqp"
	"spendshare/internal/backend"
	"spendshare/internal/cache"
	"spendshare/internal/config"
	apphttp "spendshare/internal/http"
	applog "spendshare/internal/log"
	"spendshare/internal/remote"
	"spendshare/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging (LOG_LEVEL / LOG_FORMAT)
	logger := applog.NewFromEnv(applog.ComponentApp)
	applog.SetDefault(logger)

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Choose data backend (memory or sqlite)
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}()
	}
	store := result.Store
	logger.Info("Data backend initialized", "backend", backendCfg.Type)

	// AMQP publisher is optional: without it, layout and export sync rely on
	// the worker's periodic sweeps alone.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without publisher", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	// Remote layout store is optional as well
	var remoteStore *remote.Client
	if cfg.RemoteLayoutURL != "" {
		remoteStore = remote.NewClient(cfg.RemoteLayoutURL, cfg.RemoteLayoutTimeout)
		logger.Info("Remote layout store configured", "url", cfg.RemoteLayoutURL)
	}

	// Wire services
	access := services.NewAccessService(store)
	pageCache := cache.NewLRUCache[services.ReportPage](cfg.CacheMaxEntries, cfg.CacheTTL)

	// Sweep expired report pages so the LRU does not hold dead entries
	cacheManager := cache.NewManager()
	cacheManager.Register(pageCache)
	cacheManager.StartCleanup(cfg.CacheTTL)
	defer cacheManager.Stop()

	reports := services.NewReportService(store, access, pageCache)
	expenses := services.NewExpenseService(store, access, publisher, reports)
	var layouts *services.LayoutService
	if remoteStore != nil {
		layouts = services.NewLayoutService(store, remoteStore, publisher)
	} else {
		layouts = services.NewLayoutService(store, nil, publisher)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:            ":" + cfg.Port,
		RateLimitPerMin: cfg.RateLimitPerMinute,
	}, access, reports, expenses, layouts)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting spendshare server", "port", cfg.Port, "backend", backendCfg.Type)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
