/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the cashflow engine HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load config (file, then environment, then flags)
  2. Configure logging
  3. Initialize SQLite store
  4. Build provider rules and the API handler
  5. Start the income scheduler (if enabled)
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Config file (default: $CASHFLOW_CONFIG or XDG path)
  -port    HTTP server port (overrides config and PORT)
  -db      SQLite database path (overrides config and DB_PATH)
           Use ":memory:" for in-memory database
  -scheduler  Enable the income scheduler regardless of config

ENVIRONMENT:
  PORT, DB_PATH, LOG_LEVEL, LOG_FORMAT, CASHFLOW_CONFIG

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (waits for a running pass)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/cashflow.db"

  # Demo mode
  ./server -db=":memory:" -port=3000

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/cashflow-engine/api"
	"github.com/warp/cashflow-engine/config"
	"github.com/warp/cashflow-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "Config file path")
	port := flag.String("port", "", "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	scheduler := flag.Bool("scheduler", false, "Enable the income scheduler")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}
	if *scheduler {
		cfg.Scheduler.Enabled = true
	}

	cfg.Log.ConfigureStandardLogger()
	logger := cfg.Log.NewLogger()
	log := logger.WithField("component", "server")

	// Initialize store
	if cfg.Server.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Server.DBPath), 0o755); err != nil {
			log.WithError(err).Fatal("failed to create data directory")
		}
	}
	store, err := sqlite.New(cfg.Server.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	rules, err := cfg.Rules()
	if err != nil {
		log.WithError(err).Fatal("invalid provider rules")
	}

	handler := api.NewHandler(store, rules, cfg.Engine, logger)
	incomeScheduler := api.NewIncomeScheduler(handler.Income, cfg.Scheduler, logger)
	if err := incomeScheduler.Start(); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logrus.Fields{
			"port":      cfg.Server.Port,
			"db":        cfg.Server.DBPath,
			"providers": len(rules),
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	incomeScheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server stopped")
}
