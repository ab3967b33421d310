// Package audit turns auditable domain events into audit records.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/gestock/backend/internal/domain/shared"
	"github.com/gestock/backend/internal/domain/trade"
	"github.com/gestock/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Record is a single audit trail entry
type Record struct {
	EventID    string          `json:"event_id"`
	TenantID   string          `json:"tenant_id"`
	Action     string          `json:"action"`
	Resource   string          `json:"resource"`
	Severity   string          `json:"severity"`
	Actor      string          `json:"actor,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Recorder stores or forwards audit records
type Recorder interface {
	Record(ctx context.Context, record Record) error
}

// Handler subscribes to auditable events. It is fire-and-forget: recorder
// errors are logged and the business operation that raised the event has
// already committed.
type Handler struct {
	logger   *zap.Logger
	recorder Recorder
}

// NewHandler creates a new audit event handler
func NewHandler(logger *zap.Logger, recorder Recorder) *Handler {
	return &Handler{logger: logger, recorder: recorder}
}

// EventTypes returns the auditable event types
func (h *Handler) EventTypes() []string {
	return []string{
		inventory.EventTypeStockItemDeleted,
		inventory.EventTypeCampaignValidated,
		trade.EventTypeSaleCancelled,
	}
}

// Handle converts the event into a Record and hands it to the recorder
func (h *Handler) Handle(ctx context.Context, event shared.DomainEvent) error {
	auditable, ok := event.(shared.AuditableEvent)
	if !ok {
		return fmt.Errorf("event %s is not auditable", event.EventType())
	}

	record, err := NewRecord(ctx, auditable)
	if err != nil {
		return err
	}

	if err := h.recorder.Record(ctx, record); err != nil {
		h.logger.Error("failed to record audit entry",
			zap.String("action", record.Action),
			zap.String("resource", record.Resource),
			zap.Error(err),
		)
		return nil
	}

	h.logger.Debug("audit entry queued",
		zap.String("action", record.Action),
		zap.String("severity", record.Severity),
	)
	return nil
}

// NewRecord builds a Record from an auditable event. The actor is taken from
// the request context when one is present.
func NewRecord(ctx context.Context, event shared.AuditableEvent) (Record, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Record{}, fmt.Errorf("failed to marshal audit payload: %w", err)
	}
	return Record{
		EventID:    event.EventID().String(),
		TenantID:   event.TenantID().String(),
		Action:     event.AuditAction(),
		Resource:   event.AuditResource(),
		Severity:   string(event.AuditSeverity()),
		Actor:      logger.GetActor(ctx),
		Payload:    payload,
		OccurredAt: event.OccurredAt(),
	}, nil
}

// LoggingRecorder writes audit records to the log only
type LoggingRecorder struct {
	logger *zap.Logger
}

// NewLoggingRecorder creates a recorder used when no queue is configured
func NewLoggingRecorder(logger *zap.Logger) *LoggingRecorder {
	return &LoggingRecorder{logger: logger}
}

// Record logs the audit record
func (r *LoggingRecorder) Record(_ context.Context, record Record) error {
	r.logger.Info("AUDIT",
		zap.String("tenant_id", record.TenantID),
		zap.String("action", record.Action),
		zap.String("resource", record.Resource),
		zap.String("severity", record.Severity),
		zap.String("actor", record.Actor),
	)
	return nil
}

var (
	_ shared.EventHandler = (*Handler)(nil)
	_ Recorder            = (*LoggingRecorder)(nil)
)
