// The worker consumes scheduled batch call tasks from the asynq queue and
// dispatches them against the voice provider.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callgenie_backend/internal/adapters"
	"callgenie_backend/internal/agents"
	"callgenie_backend/internal/auth"
	"callgenie_backend/internal/calls"
	"callgenie_backend/internal/email"
	"callgenie_backend/internal/events"
	"callgenie_backend/internal/notification"
	"callgenie_backend/internal/scheduler"
	"callgenie_backend/platform/config"
	"callgenie_backend/platform/db"
	"callgenie_backend/platform/logger"
	"callgenie_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.AsynqQueueName)

	if cfg.RedisURL == "" {
		panic("REDIS_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		panic("failed to parse redis url: " + err.Error())
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// Batch confirmations for scheduled dispatches are sent from the worker.
	sender := email.NewSender(cfg, log)
	notificationModule := notification.New(sender, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	authModule := auth.NewModule(pool, cfg, eventBus, log, val)
	agentsModule := agents.NewModule(pool, log, val)

	callsModule := calls.NewModule(
		cfg,
		rdb,
		adapters.NewCreditLedger(authModule.Service()),
		adapters.NewCallsAgentDirectory(agentsModule.Service()),
		eventBus,
		log,
		val,
	)

	worker, err := scheduler.NewWorker(cfg, callsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)

	// Give in-flight event handlers a moment to finish.
	time.Sleep(time.Second)
	log.Info("worker stopped")
}
