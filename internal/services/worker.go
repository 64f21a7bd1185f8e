package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/tribaltrek/pulse/internal/config"
	"github.com/tribaltrek/pulse/pkg/logger"
)

const workerConcurrency = 5

// Worker consumes alert dispatch tasks from Redis. It only exists when
// Redis is enabled; without it the SyncQueue handles dispatch in-process.
type Worker struct {
	server    *asynq.Server
	processor func(context.Context, *AlertTask) error

	mu      sync.Mutex
	done    chan struct{}
	running bool
}

// NewWorker builds an asynq consumer for the configured Redis, or nil
// when Redis is disabled.
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB},
		asynq.Config{
			Concurrency: workerConcurrency,
			Queues:      map[string]int{"default": 1},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
				logger.Warnf("[Worker] Task %s failed: %v", t.Type(), err)
			}),
		},
	)

	return &Worker{server: srv}
}

// SetProcessor registers the dispatch function invoked per task.
func (w *Worker) SetProcessor(fn func(context.Context, *AlertTask) error) {
	w.processor = fn
}

// Start runs the consumer loop in the background. Idempotent.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeAlert, w.handleAlert)

	w.done = make(chan struct{})
	w.running = true
	go func() {
		defer close(w.done)
		logger.Infof("[Worker] Alert worker started")
		if err := w.server.Run(mux); err != nil {
			logger.Errorf("[Worker] Server stopped: %v", err)
		}
	}()
	return nil
}

// Stop drains in-flight tasks and shuts the consumer down.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	logger.Infof("[Worker] Shutting down")
	w.server.Shutdown()
	<-w.done
	w.running = false
}

func (w *Worker) handleAlert(ctx context.Context, t *asynq.Task) error {
	var task AlertTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		logger.Errorf("[Worker] Bad task payload: %v", err)
		return err
	}

	logger.Infof("[Worker] Dispatching alert: kind=%s feedback_id=%d location=%s",
		task.Kind, task.FeedbackID, task.Location)

	if w.processor == nil {
		logger.Warnf("[Worker] No processor registered, dropping task")
		return nil
	}
	return w.processor(ctx, &task)
}

var (
	globalWorker *Worker
	workerOnce   sync.Once
)

// InitWorker creates the process-wide worker once.
func InitWorker(cfg *config.RedisConfig) *Worker {
	workerOnce.Do(func() {
		globalWorker = NewWorker(cfg)
	})
	return globalWorker
}

// GetWorker returns the process-wide worker, nil when Redis is off.
func GetWorker() *Worker {
	return globalWorker
}
