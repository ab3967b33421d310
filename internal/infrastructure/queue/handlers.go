package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/gestock/backend/internal/application/audit"
	appinv "github.com/gestock/backend/internal/application/inventory"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// AlertSender delivers an alert to the outside world
type AlertSender interface {
	Send(ctx context.Context, alert appinv.StockAlert) error
}

// AlertHandler processes stock alert tasks. A Redis lock per item, held for
// the cooldown, collapses a burst of OUT movements into a single alert.
type AlertHandler struct {
	sender   AlertSender
	locker   *redislock.Client
	cooldown time.Duration
	logger   *zap.Logger
}

// NewAlertHandler creates the handler. A nil sender only logs the alert;
// a nil locker disables the cooldown.
func NewAlertHandler(sender AlertSender, locker *redislock.Client, cooldown time.Duration, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{sender: sender, locker: locker, cooldown: cooldown, logger: logger}
}

// ProcessTask implements asynq.Handler
func (h *AlertHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var alert appinv.StockAlert
	if err := json.Unmarshal(t.Payload(), &alert); err != nil {
		h.logger.Error("malformed stock alert task", zap.Error(err))
		return fmt.Errorf("decode stock alert: %v: %w", err, asynq.SkipRetry)
	}
	log := h.logger.With(
		zap.String("tenant_id", alert.TenantID),
		zap.String("stock_item_id", alert.StockItemID),
		zap.String("alert_type", alert.AlertType),
	)

	var lock *redislock.Lock
	if h.locker != nil && h.cooldown > 0 {
		var err error
		lock, err = h.locker.Obtain(ctx, cooldownKey(alert), h.cooldown, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			log.Debug("stock alert suppressed by cooldown")
			return nil
		}
		if err != nil {
			return fmt.Errorf("obtain alert cooldown: %w", err)
		}
	}

	if h.sender == nil {
		log.Warn("STOCK ALERT", zap.String("subject", alert.Subject()), zap.Int("current_level", alert.CurrentLevel))
		return nil
	}
	if err := h.sender.Send(ctx, alert); err != nil {
		// let the retry through the cooldown
		if lock != nil {
			if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
				log.Warn("failed to release alert cooldown", zap.Error(releaseErr))
			}
		}
		return err
	}
	log.Info("stock alert sent")
	return nil
}

func cooldownKey(alert appinv.StockAlert) string {
	return "alert-cooldown:" + alert.TenantID + ":" + alert.StockItemID
}

// AuditStore persists audit records
type AuditStore interface {
	Create(ctx context.Context, record audit.Record) error
}

// AuditHandler processes audit record tasks
type AuditHandler struct {
	store  AuditStore
	logger *zap.Logger
}

// NewAuditHandler creates the handler
func NewAuditHandler(store AuditStore, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{store: store, logger: logger}
}

// ProcessTask implements asynq.Handler
func (h *AuditHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var record audit.Record
	if err := json.Unmarshal(t.Payload(), &record); err != nil {
		h.logger.Error("malformed audit task", zap.Error(err))
		return fmt.Errorf("decode audit record: %v: %w", err, asynq.SkipRetry)
	}
	if err := h.store.Create(ctx, record); err != nil {
		return fmt.Errorf("store audit record: %w", err)
	}
	h.logger.Info("AUDIT",
		zap.String("tenant_id", record.TenantID),
		zap.String("action", record.Action),
		zap.String("resource", record.Resource),
		zap.String("severity", record.Severity),
		zap.String("actor", record.Actor),
	)
	return nil
}
