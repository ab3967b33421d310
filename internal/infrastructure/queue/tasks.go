// Package queue moves the after-commit side effects (stock alerts, audit
// records) onto an asynq queue backed by Redis.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/gestock/backend/internal/application/audit"
	appinv "github.com/gestock/backend/internal/application/inventory"
	"github.com/hibiken/asynq"
)

const (
	// TypeStockAlert sends a low-stock notification
	TypeStockAlert = "stock:alert"
	// TypeAuditRecord persists an audit record
	TypeAuditRecord = "audit:record"
)

// NewStockAlertTask wraps an alert. The task id is derived from the event id
// so a re-published event is enqueued once.
func NewStockAlertTask(alert appinv.StockAlert) (*asynq.Task, error) {
	body, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("marshal stock alert: %w", err)
	}
	return asynq.NewTask(TypeStockAlert, body, asynq.TaskID("alert:"+alert.EventID)), nil
}

// NewAuditRecordTask wraps an audit record
func NewAuditRecordTask(record audit.Record) (*asynq.Task, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal audit record: %w", err)
	}
	return asynq.NewTask(TypeAuditRecord, body, asynq.TaskID("audit:"+record.EventID)), nil
}
