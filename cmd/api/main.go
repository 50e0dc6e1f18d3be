package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callgenie_backend/internal/adapters"
	"callgenie_backend/internal/agents"
	"callgenie_backend/internal/auth"
	"callgenie_backend/internal/batch"
	"callgenie_backend/internal/calls"
	"callgenie_backend/internal/email"
	"callgenie_backend/internal/events"
	"callgenie_backend/internal/extraction"
	apphttp "callgenie_backend/internal/http"
	"callgenie_backend/internal/http/router"
	"callgenie_backend/internal/leads"
	"callgenie_backend/internal/notification"
	"callgenie_backend/internal/scheduler"
	"callgenie_backend/platform/config"
	"callgenie_backend/platform/db"
	"callgenie_backend/platform/logger"
	"callgenie_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(cfg.DatabaseURL, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	rdb := initRedis(cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	batchScheduler, closeScheduler := initBatchScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	sender := email.NewSender(cfg, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Gemini-backed image lead extraction, optional
	imageExtractor := initImageExtractor(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(sender, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	authModule := auth.NewModule(pool, cfg, eventBus, log, val)
	agentsModule := agents.NewModule(pool, log, val)
	leadsModule := leads.NewModule(pool, log, val)

	creditLedger := adapters.NewCreditLedger(authModule.Service())
	callsDirectory := adapters.NewCallsAgentDirectory(agentsModule.Service())
	callsModule := calls.NewModule(cfg, rdb, creditLedger, callsDirectory, eventBus, log, val)

	batchModule := batch.NewModule(
		cfg,
		adapters.NewLeadStore(leadsModule.Service()),
		imageExtractor,
		adapters.NewBatchAgentDirectory(agentsModule.Service()),
		adapters.NewDispatcher(callsModule.Service()),
		batchScheduler,
		adapters.NewAccountReader(authModule.Service()),
		eventBus,
		log,
		val,
	)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			agentsModule,
			leadsModule,
			callsModule,
			batchModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRedis(cfg config.SchedulerConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; dispatch guard runs without it")
		return nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		return nil
	}
	return redis.NewClient(opt)
}

func initBatchScheduler(cfg config.SchedulerConfig, log *logger.Logger) (batch.Scheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; scheduled batches disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize batch scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initImageExtractor(ctx context.Context, cfg config.ExtractionConfig, log *logger.Logger) batch.Extractor {
	ext, err := extraction.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize image extraction", "error", err)
		return nil
	}
	if ext == nil {
		log.Warn("GEMINI_API_KEY not configured; image lead extraction disabled")
		return nil
	}
	return adapters.NewImageExtractor(ext)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
