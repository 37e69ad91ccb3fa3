/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the loan ledger HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment), then apply flags
  2. Configure logging
  3. Open the configured store
  4. Load the ledger (corrupt data degrades to an empty ledger)
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (override environment):
  -port    HTTP server port (PORT, default: 8080)
  -store   memory | sqlite | redis | postgres (STORE, default: sqlite)
  -db      SQLite database path (SQLITE_PATH, default: ledger.db)
           Use ":memory:" for an in-memory database
  -static  Directory of a built frontend (default: ./web/dist)
  -backup  Directory for scheduled exports (BACKUP_DIR, default: disabled)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the backup scheduler
  4. Close the store
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/ledger.db"

  # Run against Redis
  STORE=redis REDIS_URL=redis://localhost:6379/0 ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/store.go: Backend selection
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/loan-ledger/api"
	"github.com/warp/loan-ledger/config"
	"github.com/warp/loan-ledger/ledger"
	"github.com/warp/loan-ledger/logging"
	"github.com/warp/loan-ledger/metrics"
	"github.com/warp/loan-ledger/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	backend := flag.String("store", cfg.Store.Backend, "Store backend: memory, sqlite, redis or postgres")
	dbPath := flag.String("db", cfg.Store.SQLitePath, "SQLite database path")
	staticDir := flag.String("static", "", "Directory of a built frontend")
	backupDir := flag.String("backup", cfg.Backup.Dir, "Directory for scheduled exports")
	flag.Parse()
	cfg.Port = *port
	cfg.Store.Backend = *backend
	cfg.Store.SQLitePath = *dbPath
	cfg.Backup.Dir = *backupDir

	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store
	kv, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer kv.Close()

	// Initialize ledger
	m := metrics.New()
	l := ledger.New(kv, ledger.WithObserver(m))
	if err := l.Load(ctx); err != nil {
		slog.Warn("starting with an empty ledger", "error", err)
	}
	snap := l.Snapshot()
	m.SetCounts(len(snap.Persons), len(snap.Transactions))

	// Create router
	handler := api.NewHandler(l, cfg.Currency)
	handler.Store = kv
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.CORSOrigins,
		Metrics:        m.Handler(),
		StaticDir:      *staticDir,
	})

	// Start backups
	backups, err := api.NewBackupScheduler(l, cfg.Backup.Dir, cfg.Backup.Schedule, slog.Default())
	if err != nil {
		return err
	}
	backups.Start()
	defer backups.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"addr", fmt.Sprintf("http://localhost:%d", cfg.Port),
			"store", cfg.Store.Backend,
			"persons", len(snap.Persons),
			"transactions", len(snap.Transactions),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
