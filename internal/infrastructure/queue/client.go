package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/gestock/backend/internal/application/audit"
	appinv "github.com/gestock/backend/internal/application/inventory"
	"github.com/gestock/backend/internal/infrastructure/config"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpt maps the Redis configuration onto asynq connection options
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Client enqueues side-effect tasks. It is the production StockAlertNotifier
// and audit Recorder: enqueueing is a single Redis round trip, the slow work
// happens in the worker.
type Client struct {
	client   *asynq.Client
	queue    string
	maxRetry int
	logger   *zap.Logger
}

// NewClient creates a queue client
func NewClient(opt asynq.RedisConnOpt, cfg config.WorkerConfig, logger *zap.Logger) *Client {
	return &Client{
		client:   asynq.NewClient(opt),
		queue:    cfg.Queue,
		maxRetry: cfg.MaxRetry,
		logger:   logger,
	}
}

// SendAlert enqueues a low-stock alert
func (c *Client) SendAlert(ctx context.Context, alert appinv.StockAlert) error {
	task, err := NewStockAlertTask(alert)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

// Record enqueues an audit record
func (c *Client) Record(ctx context.Context, record audit.Record) error {
	task, err := NewAuditRecordTask(record)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.MaxRetry(c.maxRetry))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		c.logger.Debug("task already enqueued", zap.String("type", task.Type()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	c.logger.Debug("task enqueued",
		zap.String("type", task.Type()),
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
	)
	return nil
}

// Close releases the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

var (
	_ appinv.StockAlertNotifier = (*Client)(nil)
	_ audit.Recorder            = (*Client)(nil)
)
