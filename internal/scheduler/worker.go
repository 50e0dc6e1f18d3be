package scheduler

import (
	"context"
	"fmt"

	"callgenie_backend/platform/config"
	"callgenie_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// BatchDispatcher fires a previously scheduled batch call against the voice
// provider. Implemented by the calls module.
type BatchDispatcher interface {
	DispatchScheduled(ctx context.Context, payload BatchCallDispatchPayload) error
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	dispatcher BatchDispatcher
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, dispatcher BatchDispatcher, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		dispatcher: dispatcher,
		log:        log,
	}

	mux.HandleFunc(TaskBatchCallDispatch, w.handleBatchCallDispatch)

	return w, nil
}

func (w *Worker) handleBatchCallDispatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseBatchCallDispatchPayload(task)
	if err != nil {
		return err
	}

	w.log.Info("dispatching scheduled batch call",
		"batch_key", payload.BatchKey,
		"user_id", payload.UserID,
		"leads", len(payload.Leads),
	)

	return w.dispatcher.DispatchScheduled(ctx, payload)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
