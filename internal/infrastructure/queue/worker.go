package queue

import (
	"context"
	"errors"

	"github.com/gestock/backend/internal/infrastructure/config"
	"github.com/gestock/backend/internal/infrastructure/telemetry"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Route binds a task type to its handler
type Route struct {
	Type    string
	Handler asynq.Handler
}

// Worker runs the asynq server
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewWorker creates a worker consuming the configured queue
func NewWorker(opt asynq.RedisConnOpt, cfg config.WorkerConfig, logger *zap.Logger, routes ...Route) *Worker {
	log := logger.Named("worker")
	onError := func(_ context.Context, task *asynq.Task, err error) {
		log.Warn("task failed", zap.String("type", task.Type()), zap.Error(err))
	}
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency:  cfg.Concurrency,
		Queues:       map[string]int{cfg.Queue: 1},
		Logger:       log.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(onError),
	})

	mux := asynq.NewServeMux()
	mux.Use(traceTask)
	for _, r := range routes {
		if r.Type == "" || r.Handler == nil {
			continue
		}
		mux.Handle(r.Type, r.Handler)
	}
	return &Worker{server: server, mux: mux, logger: log}
}

// traceTask wraps every task in a consumer span
func traceTask(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		ctx, span := telemetry.StartSpan(ctx, "task "+task.Type(), trace.SpanKindConsumer,
			attribute.String("messaging.system", "asynq"),
			attribute.String("messaging.operation", task.Type()),
		)
		err := next.ProcessTask(ctx, task)
		telemetry.EndSpan(span, err)
		return err
	})
}

// Handler exposes the routing mux
func (w *Worker) Handler() asynq.Handler {
	return w.mux
}

// Run processes tasks until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.logger.Info("worker started")

	<-ctx.Done()
	w.server.Shutdown()
	w.logger.Info("worker stopped")
	return nil
}
