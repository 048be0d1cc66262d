// main is the entry point of the Players API application.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file (plus .env and env overrides)
//  2. Initialise the logger
//  3. Open the configured record store (sqlite, postgres or memory)
//  4. Optionally put the Redis player cache in front of it
//  5. Build the service and the HTTP router
//  6. Start the HTTP server in a separate goroutine
//  7. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  8. Gracefully shut down: finish in-flight requests, close the store
//
// RUNNING THE SERVER:
//
//	go run ./cmd/players-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/players-api
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aanand-mishra/players-api/internal/config"
	"github.com/aanand-mishra/players-api/internal/http/router"
	"github.com/aanand-mishra/players-api/internal/service"
	"github.com/aanand-mishra/players-api/internal/storage"
	"github.com/aanand-mishra/players-api/internal/storage/cache"
	"github.com/aanand-mishra/players-api/internal/storage/memory"
	"github.com/aanand-mishra/players-api/internal/storage/postgres"
	"github.com/aanand-mishra/players-api/internal/storage/sqlite"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	// MustLoad reads the YAML config and exits if anything is wrong.
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// slog.SetDefault makes package-level slog calls (used by handlers)
	// go through the same handler as the injected logger.
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting players-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	// ── 3 + 4. Initialise Storage ─────────────────────────────────────────
	// Everything past this point only sees the storage.Storage interface.
	store, err := openStorage(cfg, log)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("driver", cfg.Storage.Driver),
			slog.String("error", err.Error()))
		os.Exit(1) // non-zero exit code signals failure to the OS / CI system
	}

	// ── 5. Service + Routes ───────────────────────────────────────────────
	players := service.New(store, log)

	// ── 6. Create the HTTP Server ─────────────────────────────────────────
	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr, // e.g. "localhost:8082"
		Handler: router.New(players, log),

		// Production hardening — set timeouts to prevent slow-client attacks.
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// ListenAndServe blocks forever, so it runs in its own goroutine and
	// main stays free to wait for a shutdown signal.
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ListenAndServe returns http.ErrServerClosed when Shutdown() is
		// called. That's expected — we don't want to log it as an error.
		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 7. Wait for Shutdown Signal ───────────────────────────────────────
	//   os.Interrupt = Ctrl+C (SIGINT)
	//   syscall.SIGTERM = sent by `kill <pid>` or container orchestrators
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	// Stop accepting connections, let in-flight requests finish (up to
	// ShutdownTimeout), and only then close the store they may be using.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	exitCode := 0
	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		exitCode = 1
	}

	if err := store.Close(); err != nil {
		log.Error("failed to close storage",
			slog.String("error", err.Error()))
		exitCode = 1
	}

	if exitCode != 0 {
		cancel()
		os.Exit(exitCode)
	}

	log.Info("server stopped gracefully")
}

// openStorage opens the record store selected by cfg.Storage.Driver and,
// when a Redis URL is configured, wraps it in the player cache.
func openStorage(cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	var (
		store storage.Storage
		err   error
	)

	switch cfg.Storage.Driver {
	case "sqlite":
		store, err = sqlite.New(cfg)
		if err == nil {
			log.Info("storage initialised", slog.String("driver", "sqlite"), slog.String("path", cfg.Storage.Path))
		}
	case "postgres":
		store, err = postgres.New(cfg)
		if err == nil {
			log.Info("storage initialised", slog.String("driver", "postgres"))
		}
	case "memory":
		store = memory.New()
		log.Warn("storage initialised in memory; data is lost on restart")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, err
	}

	if !cfg.Cache.Enabled() {
		return store, nil
	}

	cached, err := cache.New(store, cache.Config{URL: cfg.Cache.RedisURL, TTL: cfg.Cache.TTL}, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("player cache: %w", err)
	}
	log.Info("player cache enabled", slog.Duration("ttl", cfg.Cache.TTL))

	return cached, nil
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo, // INFO and above in production
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug, // more verbose in staging
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug, // all levels in development
			}),
		)
	}
}
