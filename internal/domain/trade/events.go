package trade

import (
	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeSale is the aggregate type of sale events
const AggregateTypeSale = "Sale"

// Sale event type constants
const (
	EventTypeSaleCreated     = "SaleCreated"
	EventTypeSaleDelivered   = "SaleDelivered"
	EventTypePaymentRecorded = "SalePaymentRecorded"
	EventTypeSaleCancelled   = "SaleCancelled"
)

// SaleCreatedEvent is raised when a sale is created
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID    uuid.UUID       `json:"sale_id"`
	Reference string          `json:"reference"`
	TotalTtc  decimal.Decimal `json:"total_ttc"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		Reference:       s.Reference,
		TotalTtc:        s.TotalTtc,
	}
}

// SaleDeliveredEvent is raised after a delivery request commits
type SaleDeliveredEvent struct {
	shared.BaseDomainEvent
	SaleID    uuid.UUID `json:"sale_id"`
	Reference string    `json:"reference"`
	Lines     int       `json:"lines"`
}

// NewSaleDeliveredEvent creates a new SaleDeliveredEvent
func NewSaleDeliveredEvent(s *Sale, lines int) *SaleDeliveredEvent {
	return &SaleDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleDelivered, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		Reference:       s.Reference,
		Lines:           lines,
	}
}

// PaymentRecordedEvent is raised when a payment is applied
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID       `json:"sale_id"`
	Reference  string          `json:"reference"`
	Amount     decimal.Decimal `json:"amount"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Status     SaleStatus      `json:"status"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(s *Sale, amount decimal.Decimal) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		Reference:       s.Reference,
		Amount:          amount,
		AmountPaid:      s.AmountPaid,
		Status:          s.Status,
	}
}

// SaleCancelledEvent is raised when a sale is cancelled
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleID    uuid.UUID       `json:"sale_id"`
	Reference string          `json:"reference"`
	Reason    string          `json:"reason"`
	Refunded  decimal.Decimal `json:"refunded"`
}

// NewSaleCancelledEvent creates a new SaleCancelledEvent
func NewSaleCancelledEvent(s *Sale, reason string, refunded decimal.Decimal) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		Reference:       s.Reference,
		Reason:          reason,
		Refunded:        refunded,
	}
}

func (e *SaleCancelledEvent) AuditAction() string   { return "SALE_CANCELLED" }
func (e *SaleCancelledEvent) AuditResource() string { return "sale:" + e.Reference }
func (e *SaleCancelledEvent) AuditSeverity() shared.Severity {
	if e.Refunded.IsPositive() {
		return shared.SeverityCritical
	}
	return shared.SeverityWarning
}

var _ shared.AuditableEvent = (*SaleCancelledEvent)(nil)
