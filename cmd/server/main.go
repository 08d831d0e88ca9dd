/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server. Handles configuration,
  dependency injection, first-run seeding, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env / environment), apply flag overrides
  2. Initialize SQLite store
  3. Seed the initial director account on an empty roster
  4. Configure handler and HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for an in-memory database

FIRST RUN:
  An empty roster gets a seeded director (username "admin", password
  "Admin1") so someone can sign in and build out the roster. Change the
  password immediately.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment loading
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bradleyems/leave-engine/api"
	"github.com/bradleyems/leave-engine/config"
	"github.com/bradleyems/leave-engine/leave"
	"github.com/bradleyems/leave-engine/store/sqlite"
)

func main() {
	cfg := config.Load()

	port := flag.String("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "leave-engine"),
		slog.String("env", cfg.Env),
	)
	slog.SetDefault(logger)

	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := seedDirector(context.Background(), store, logger); err != nil {
		logger.Error("failed to seed roster", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(store, cfg.JWTSecret)
	handler.Notifier = &api.LogNotifier{Logger: logger}
	router := api.NewRouter(handler, logger)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// seedDirector creates the bootstrap director account when the roster is
// empty.
func seedDirector(ctx context.Context, store *sqlite.Store, logger *slog.Logger) error {
	employees, err := store.ListEmployees(ctx)
	if err != nil {
		return err
	}
	if len(employees) > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("Admin1"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	director := leave.Employee{
		ID:           "emp-admin",
		Username:     "admin",
		PasswordHash: string(hash),
		FirstName:    "System",
		LastName:     "Administrator",
		HireDate:     leave.NewDate(2020, time.January, 1),
		CertLevel:    leave.CertParamedic,
		AdminLevel:   leave.AdminDirector,
	}
	if err := store.PutEmployee(ctx, director); err != nil {
		return err
	}

	logger.Info("seeded initial director account", "username", director.Username)
	return nil
}
