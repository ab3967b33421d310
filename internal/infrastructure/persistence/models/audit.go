package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogModel is a row of the audit trail. Rows are written by the
// background worker, never inside a business transaction.
type AuditLogModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	EventID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Action     string    `gorm:"type:varchar(100);not null"`
	Resource   string    `gorm:"type:varchar(255);not null"`
	Severity   string    `gorm:"type:varchar(20);not null"`
	Actor      string    `gorm:"type:varchar(255)"`
	Payload    string    `gorm:"type:text"`
	OccurredAt time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// All returns every model managed by the service, in dependency order.
func All() []any {
	return []any{
		&StockItemModel{},
		&ProductMovementModel{},
		&CampaignModel{},
		&CampaignItemModel{},
		&SaleModel{},
		&SaleItemModel{},
		&InvoiceModel{},
		&InvoiceItemModel{},
		&PaymentModel{},
		&AuditLogModel{},
	}
}
