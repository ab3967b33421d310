package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/gestock/backend/internal/application/audit"
	"github.com/gestock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAuditLogRepository stores audit records
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create inserts the record. A redelivered record (same event id) is ignored,
// which makes the audit task safe to retry.
func (r *GormAuditLogRepository) Create(ctx context.Context, record audit.Record) error {
	eventID, err := uuid.Parse(record.EventID)
	if err != nil {
		return fmt.Errorf("invalid audit event id %q: %w", record.EventID, err)
	}
	tenantID, err := uuid.Parse(record.TenantID)
	if err != nil {
		return fmt.Errorf("invalid audit tenant id %q: %w", record.TenantID, err)
	}

	row := &models.AuditLogModel{
		ID:         uuid.New(),
		TenantID:   tenantID,
		EventID:    eventID,
		Action:     record.Action,
		Resource:   record.Resource,
		Severity:   record.Severity,
		Actor:      record.Actor,
		Payload:    string(record.Payload),
		OccurredAt: record.OccurredAt,
		CreatedAt:  time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(row).Error
}

// Record stores the record in-process, for deployments without a worker
func (r *GormAuditLogRepository) Record(ctx context.Context, record audit.Record) error {
	return r.Create(ctx, record)
}

var _ audit.Recorder = (*GormAuditLogRepository)(nil)

// FindByTenant returns the latest records of a tenant, newest first
func (r *GormAuditLogRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.AuditLogModel, error) {
	var rows []models.AuditLogModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
