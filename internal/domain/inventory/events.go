package inventory

import (
	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeStockItem = "StockItem"
	AggregateTypeCampaign  = "InventoryCampaign"
)

// Event type constants
const (
	EventTypeStockLevelChanged   = "StockLevelChanged"
	EventTypeStockBelowThreshold = "StockBelowThreshold"
	EventTypeStockItemDeleted    = "StockItemDeleted"
	EventTypeCampaignCreated     = "InventoryCampaignCreated"
	EventTypeCampaignValidated   = "InventoryCampaignValidated"
	EventTypeCampaignSuspended   = "InventoryCampaignSuspended"
	EventTypeCampaignCancelled   = "InventoryCampaignCancelled"
	EventTypeCampaignResumed     = "InventoryCampaignResumed"
)

// StockLevelChangedEvent is raised on every committed level change
type StockLevelChangedEvent struct {
	shared.BaseDomainEvent
	StockItemID   uuid.UUID `json:"stock_item_id"`
	SKU           string    `json:"sku"`
	PreviousLevel int       `json:"previous_level"`
	NewLevel      int       `json:"new_level"`
}

// NewStockLevelChangedEvent creates a new StockLevelChangedEvent
func NewStockLevelChangedEvent(s *StockItem, change LevelChange) *StockLevelChangedEvent {
	return &StockLevelChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockLevelChanged, AggregateTypeStockItem, s.ID, s.TenantID),
		StockItemID:     s.ID,
		SKU:             s.SKU,
		PreviousLevel:   change.Previous,
		NewLevel:        change.New,
	}
}

// StockBelowThresholdEvent is raised when a decrease leaves the item at or
// below its minimum threshold
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	StockItemID  uuid.UUID `json:"stock_item_id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	CurrentLevel int       `json:"current_level"`
	MinThreshold int       `json:"min_threshold"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(s *StockItem) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeStockItem, s.ID, s.TenantID),
		StockItemID:     s.ID,
		SKU:             s.SKU,
		Name:            s.Name,
		CurrentLevel:    s.CurrentLevel,
		MinThreshold:    s.MinThreshold,
	}
}

// StockItemDeletedEvent is raised when an item is soft deleted
type StockItemDeletedEvent struct {
	shared.BaseDomainEvent
	StockItemID uuid.UUID `json:"stock_item_id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
}

// NewStockItemDeletedEvent creates a new StockItemDeletedEvent
func NewStockItemDeletedEvent(s *StockItem) *StockItemDeletedEvent {
	return &StockItemDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockItemDeleted, AggregateTypeStockItem, s.ID, s.TenantID),
		StockItemID:     s.ID,
		SKU:             s.SKU,
		Name:            s.Name,
	}
}

func (e *StockItemDeletedEvent) AuditAction() string { return "STOCK_ITEM_DELETED" }
func (e *StockItemDeletedEvent) AuditResource() string {
	return "stock_item:" + e.SKU
}
func (e *StockItemDeletedEvent) AuditSeverity() shared.Severity { return shared.SeverityWarning }

// CampaignCreatedEvent is raised when a count starts and the stock lock is taken
type CampaignCreatedEvent struct {
	shared.BaseDomainEvent
	CampaignID uuid.UUID `json:"campaign_id"`
	Name       string    `json:"name"`
	ItemCount  int       `json:"item_count"`
}

// NewCampaignCreatedEvent creates a new CampaignCreatedEvent
func NewCampaignCreatedEvent(c *Campaign) *CampaignCreatedEvent {
	return &CampaignCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCampaignCreated, AggregateTypeCampaign, c.ID, c.TenantID),
		CampaignID:      c.ID,
		Name:            c.Name,
		ItemCount:       len(c.Items),
	}
}

// CampaignValidatedEvent is raised when a campaign is closed as VALIDATED
type CampaignValidatedEvent struct {
	shared.BaseDomainEvent
	CampaignID    uuid.UUID `json:"campaign_id"`
	Name          string    `json:"name"`
	StockSynced   bool      `json:"stock_synced"`
	Discrepancies int       `json:"discrepancies"`
}

// NewCampaignValidatedEvent creates a new CampaignValidatedEvent
func NewCampaignValidatedEvent(c *Campaign, synced bool) *CampaignValidatedEvent {
	return &CampaignValidatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCampaignValidated, AggregateTypeCampaign, c.ID, c.TenantID),
		CampaignID:      c.ID,
		Name:            c.Name,
		StockSynced:     synced,
		Discrepancies:   len(c.Discrepancies()),
	}
}

func (e *CampaignValidatedEvent) AuditAction() string { return "CAMPAIGN_VALIDATED" }
func (e *CampaignValidatedEvent) AuditResource() string {
	return "inventory_campaign:" + e.Name
}
func (e *CampaignValidatedEvent) AuditSeverity() shared.Severity {
	if e.StockSynced && e.Discrepancies > 0 {
		return shared.SeverityCritical
	}
	return shared.SeverityInfo
}

// CampaignStatusChangedEvent covers suspend, cancel and resume
type CampaignStatusChangedEvent struct {
	shared.BaseDomainEvent
	CampaignID uuid.UUID      `json:"campaign_id"`
	Name       string         `json:"name"`
	Status     CampaignStatus `json:"status"`
}

// NewCampaignStatusChangedEvent creates a new CampaignStatusChangedEvent
func NewCampaignStatusChangedEvent(c *Campaign, eventType string) *CampaignStatusChangedEvent {
	return &CampaignStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCampaign, c.ID, c.TenantID),
		CampaignID:      c.ID,
		Name:            c.Name,
		Status:          c.Status,
	}
}

var (
	_ shared.AuditableEvent = (*StockItemDeletedEvent)(nil)
	_ shared.AuditableEvent = (*CampaignValidatedEvent)(nil)
)
