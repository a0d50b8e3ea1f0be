package scheduler

import (
	"context"
	"fmt"
	"time"

	"dealflow_backend/platform/config"
	"dealflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	defaultConcurrency    = 10
	workerShutdownTimeout = 8 * time.Second
)

// OverdueProcessor flags a task overdue when it is still open past its due date.
type OverdueProcessor interface {
	MarkTaskOverdue(ctx context.Context, taskID uuid.UUID) error
}

// Worker consumes deferred deal jobs from Redis.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor OverdueProcessor
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, processor OverdueProcessor, log *logger.Logger) (*Worker, error) {
	opt, err := connOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	w := newWorker(processor, log)
	w.server = asynq.NewServer(opt, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{queueName(cfg): 1},
		ShutdownTimeout: workerShutdownTimeout,
		ErrorHandler:    asynq.ErrorHandlerFunc(w.reportFailure),
	})
	return w, nil
}

// newWorker builds the routing table without a Redis connection.
func newWorker(processor OverdueProcessor, log *logger.Logger) *Worker {
	w := &Worker{
		mux:       asynq.NewServeMux(),
		processor: processor,
		log:       log,
	}
	w.mux.HandleFunc(TaskOverdueCheck, w.handleTaskOverdueCheck)
	return w
}

// Run blocks until ctx is cancelled or the server fails to start.
func (w *Worker) Run(ctx context.Context) {
	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			w.server.Shutdown()
		case <-stopped:
		}
	}()
	defer close(stopped)

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) reportFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	w.log.Warn("scheduled job failed",
		"type", task.Type(),
		"attempt", retried+1,
		"maxRetry", maxRetry,
		"error", err,
	)
}

func (w *Worker) handleTaskOverdueCheck(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTaskOverdueCheckPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	taskID, err := uuid.Parse(payload.TaskID)
	if err != nil {
		return fmt.Errorf("invalid task id %q: %w", payload.TaskID, asynq.SkipRetry)
	}

	return w.processor.MarkTaskOverdue(ctx, taskID)
}
