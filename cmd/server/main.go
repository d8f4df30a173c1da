/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the finance engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and environment configuration
  2. Configure logging
  3. Initialize SQLite store (runs migrations, seeds zero tax rates)
  4. Wire engine, invoice writer, statement exporter
  5. Start HTTP server with graceful shutdown

CONFIGURATION (environment, prefix FINENGINE_):
  FINENGINE_ADDR         Listen address (default: localhost:8080)
  FINENGINE_DB_PATH      SQLite database path (default: finance.db)
                         Use ":memory:" for an in-memory database
  FINENGINE_INVOICE_DIR  Directory for invoice CSV files (default: invoices)
  FINENGINE_BACKUP_DIR   Directory for backup files (default: backups)
  FINENGINE_LOG_FORMAT   "text" or "json" (default: text)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  FINENGINE_DB_PATH=./data/shop.db ./server

  # Run with in-memory database
  FINENGINE_DB_PATH=":memory:" ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/mow/finance-engine/api"
	"github.com/mow/finance-engine/ledger"
	"github.com/mow/finance-engine/report"
	"github.com/mow/finance-engine/store/sqlite"
)

// Config holds all server configuration, read from the environment.
type Config struct {
	Addr       string `envconfig:"ADDR" default:"localhost:8080"`
	DBPath     string `envconfig:"DB_PATH" default:"finance.db"`
	InvoiceDir string `envconfig:"INVOICE_DIR" default:"invoices"`
	BackupDir  string `envconfig:"BACKUP_DIR" default:"backups"`
	LogFormat  string `envconfig:"LOG_FORMAT" default:"text"`
}

func main() {
	// .env is optional; real environment always wins
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("FINENGINE", &cfg); err != nil {
		logrus.WithError(err).Fatal("failed to read configuration")
	}

	log := logrus.New()
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	if err := os.MkdirAll(cfg.InvoiceDir, 0o755); err != nil {
		log.WithError(err).Fatal("failed to create invoice directory")
	}

	// Wire dependencies
	invoices := report.NewCSVInvoiceWriter(cfg.InvoiceDir)
	engine := ledger.NewEngine(store, invoices, log)
	handler := api.NewHandler(store, engine, report.NewExcelExporter(), cfg.BackupDir, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logrus.Fields{
			"addr": cfg.Addr,
			"db":   cfg.DBPath,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}
