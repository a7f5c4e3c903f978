package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/eulerhq/euler-api/internal/api"
	apimiddleware "github.com/eulerhq/euler-api/internal/api/middleware"
	"github.com/eulerhq/euler-api/internal/config"
	"github.com/eulerhq/euler-api/internal/events"
	"github.com/eulerhq/euler-api/internal/platform/gemini"
	"github.com/eulerhq/euler-api/internal/platform/postgres"
	"github.com/eulerhq/euler-api/internal/platform/postgres/migrations"
	"github.com/eulerhq/euler-api/internal/progress"
	"github.com/eulerhq/euler-api/internal/queue"
	"github.com/eulerhq/euler-api/internal/service"
	"github.com/eulerhq/euler-api/internal/service/auth"
	"github.com/eulerhq/euler-api/internal/worker"
)

// application holds the wired components of a running server.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	db      *sql.DB
	manager *worker.Manager
	router  http.Handler
}

// openDatabase establishes a pooled connection to Postgres and verifies it.
// The ping retries briefly so the server survives a database that is still
// coming up alongside it.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	backoff := retry.WithMaxDuration(30*time.Second, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// applyMigrations runs all pending migrations from the embedded filesystem.
func applyMigrations(db *sql.DB, logger *slog.Logger) error {
	goose.SetLogger(&slogGooseLogger{logger: logger})
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// buildApplication wires the stores, queue, services, worker pool, and
// HTTP router. LLM-backed handlers are registered only when an API key is
// configured; documents can still be uploaded and chunked without one.
func buildApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	policy := queue.BackoffPolicy{
		Base:        cfg.Worker.BackoffBase,
		Cap:         cfg.Worker.BackoffCap,
		Jitter:      cfg.Worker.BackoffJitter,
		MaxAttempts: cfg.Worker.MaxAttempts,
	}
	sink := postgres.NewDeadLetterSink(db)
	taskQueue := postgres.NewTaskQueue(db, policy, cfg.Worker.VisibilityTimeout, sink)

	docStore := postgres.NewPostgresDocumentStore(db, logger)
	solveStore := postgres.NewPostgresSolveRequestStore(db, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewEnqueueHandler(taskQueue, logger))

	documentService, err := service.NewDocumentService(docStore, emitter, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create document service: %w", err)
	}
	solveService, err := service.NewSolveService(solveStore, emitter, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create solve service: %w", err)
	}

	tracker := progress.NewBroker(logger)

	registry := worker.NewRegistry()
	if err := registry.Register(
		service.TaskTypeDocumentProcess,
		service.NewDocumentProcessHandler(docStore, emitter, tracker, logger),
	); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register document handler: %w", err)
	}

	if cfg.LLM.GeminiAPIKey != "" {
		llmClient, err := gemini.NewClient(ctx, logger, cfg.LLM)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		if err := registry.Register(
			service.TaskTypeSolveQuestion,
			service.NewSolveQuestionHandler(solveStore, llmClient, logger),
		); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to register solve handler: %w", err)
		}
		if err := registry.Register(
			service.TaskTypeEmbedChunks,
			service.NewEmbedChunksHandler(docStore, llmClient, logger),
		); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to register embed handler: %w", err)
		}
	} else {
		logger.Warn("no Gemini API key configured, solve and embed handlers disabled")
	}

	manager := worker.NewManager(taskQueue, registry, worker.ManagerConfig{
		Concurrency:         cfg.Worker.Concurrency,
		ClaimBatchSize:      cfg.Worker.ClaimBatchSize,
		BlockTimeout:        cfg.Worker.BlockTimeout,
		HandlerTimeout:      cfg.Worker.HandlerTimeout,
		ShutdownGracePeriod: cfg.Worker.ShutdownGracePeriod,
	}, logger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	router := api.NewRouter(api.RouterDeps{
		Auth:      api.NewAuthHandler(jwtService, auth.NewBcryptVerifier(), cfg.Auth),
		Documents: api.NewDocumentHandler(documentService, tracker),
		Solve:     api.NewSolveHandler(solveService),
		Tasks:     api.NewTaskHandler(taskQueue, sink),
		AuthMW:    apimiddleware.NewAuthMiddleware(jwtService),
	})

	return &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		manager: manager,
		router:  router,
	}, nil
}

// slogGooseLogger adapts slog to the goose logger interface.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}
