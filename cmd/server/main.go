// Package main implements the entry point for the Euler API server, which
// manages document ingestion, chunk embedding, and question solving backed
// by a durable Postgres task queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/eulerhq/euler-api/internal/config"
	"github.com/eulerhq/euler-api/internal/platform/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "apply database migrations and exit")
	flag.Parse()

	if err := run(*migrateOnly); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run(migrateOnly bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateOnly {
		db, err := openDatabase(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		if err := applyMigrations(db, appLogger); err != nil {
			return err
		}
		appLogger.Info("migrations applied")
		return nil
	}

	app, err := buildApplication(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.run(ctx); err != nil {
		return err
	}

	appLogger.Info("server shutdown completed")
	return nil
}
