package models

import (
	"time"

	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockItemModel is the persistence model for the StockItem aggregate root.
type StockItemModel struct {
	TenantAggregateModel
	SKU          string          `gorm:"column:sku;type:varchar(100);not null"`
	Name         string          `gorm:"type:varchar(255);not null;index"`
	Category     string          `gorm:"type:varchar(100)"`
	Location     string          `gorm:"type:varchar(100)"`
	ImageURL     string          `gorm:"column:image_url;type:text"`
	CurrentLevel int             `gorm:"not null;default:0"`
	MinThreshold int             `gorm:"not null;default:5"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Status       string          `gorm:"type:varchar(20);not null;default:'actif';index"`
	DeletedAt    *time.Time
}

// TableName returns the table name for GORM
func (StockItemModel) TableName() string {
	return "stock_items"
}

// ToDomain converts the persistence model to a domain StockItem.
func (m *StockItemModel) ToDomain() *inventory.StockItem {
	return &inventory.StockItem{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		SKU:                 m.SKU,
		Name:                m.Name,
		Category:            m.Category,
		Location:            m.Location,
		ImageURL:            m.ImageURL,
		CurrentLevel:        m.CurrentLevel,
		MinThreshold:        m.MinThreshold,
		UnitPrice:           m.UnitPrice,
		Status:              inventory.StockItemStatus(m.Status),
		DeletedAt:           m.DeletedAt,
	}
}

// StockItemModelFromDomain creates a persistence model from a domain StockItem.
func StockItemModelFromDomain(s *inventory.StockItem) *StockItemModel {
	m := &StockItemModel{
		SKU:          s.SKU,
		Name:         s.Name,
		Category:     s.Category,
		Location:     s.Location,
		ImageURL:     s.ImageURL,
		CurrentLevel: s.CurrentLevel,
		MinThreshold: s.MinThreshold,
		UnitPrice:    s.UnitPrice,
		Status:       string(s.Status),
		DeletedAt:    s.DeletedAt,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}

// ProductMovementModel is the persistence model for the append-only movement ledger.
type ProductMovementModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index:idx_product_movements_tenant_date,priority:1"`
	StockItemID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Type          string    `gorm:"type:varchar(20);not null"`
	Qty           int       `gorm:"not null"`
	PreviousLevel int       `gorm:"not null"`
	NewLevel      int       `gorm:"not null"`
	Reason        string    `gorm:"type:varchar(255);not null"`
	ReferenceID   string    `gorm:"column:ref;type:varchar(100)"`
	Actor         string    `gorm:"column:user_ref;type:varchar(255)"`
	MovementDate  time.Time `gorm:"not null;index:idx_product_movements_tenant_date,priority:2"`
}

// TableName returns the table name for GORM
func (ProductMovementModel) TableName() string {
	return "product_movements"
}

// ToDomain converts the persistence model to a domain ProductMovement.
func (m *ProductMovementModel) ToDomain() *inventory.ProductMovement {
	return &inventory.ProductMovement{
		ID:            m.ID,
		TenantID:      m.TenantID,
		StockItemID:   m.StockItemID,
		Type:          inventory.MovementType(m.Type),
		Quantity:      m.Qty,
		PreviousLevel: m.PreviousLevel,
		NewLevel:      m.NewLevel,
		Reason:        m.Reason,
		ReferenceID:   m.ReferenceID,
		Actor:         m.Actor,
		MovementDate:  m.MovementDate,
	}
}

// ProductMovementModelFromDomain creates a persistence model from a domain ProductMovement.
func ProductMovementModelFromDomain(p *inventory.ProductMovement) *ProductMovementModel {
	return &ProductMovementModel{
		ID:            p.ID,
		TenantID:      p.TenantID,
		StockItemID:   p.StockItemID,
		Type:          string(p.Type),
		Qty:           p.Quantity,
		PreviousLevel: p.PreviousLevel,
		NewLevel:      p.NewLevel,
		Reason:        p.Reason,
		ReferenceID:   p.ReferenceID,
		Actor:         p.Actor,
		MovementDate:  p.MovementDate,
	}
}

// CampaignModel is the persistence model for the InventoryCampaign aggregate root.
type CampaignModel struct {
	TenantAggregateModel
	Name        string              `gorm:"type:varchar(255);not null"`
	Status      string              `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	ValidatedAt *time.Time
	Items       []CampaignItemModel `gorm:"foreignKey:CampaignID;references:ID"`
}

// TableName returns the table name for GORM
func (CampaignModel) TableName() string {
	return "inventory_campaigns"
}

// ToDomain converts the persistence model to a domain Campaign.
func (m *CampaignModel) ToDomain() *inventory.Campaign {
	c := &inventory.Campaign{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		Status:              inventory.CampaignStatus(m.Status),
		ValidatedAt:         m.ValidatedAt,
		Items:               make([]inventory.CampaignItem, len(m.Items)),
	}
	for i := range m.Items {
		c.Items[i] = m.Items[i].ToDomain()
	}
	return c
}

// CampaignModelFromDomain creates a persistence model from a domain Campaign.
func CampaignModelFromDomain(c *inventory.Campaign) *CampaignModel {
	m := &CampaignModel{
		Name:        c.Name,
		Status:      string(c.Status),
		ValidatedAt: c.ValidatedAt,
		Items:       make([]CampaignItemModel, len(c.Items)),
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	for i := range c.Items {
		m.Items[i] = *CampaignItemModelFromDomain(&c.Items[i])
	}
	return m
}

// CampaignItemModel is the persistence model for a campaign line.
// SKU and name are denormalised so the count sheet survives item renames.
type CampaignItemModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CampaignID  uuid.UUID `gorm:"type:uuid;not null;index"`
	StockItemID uuid.UUID `gorm:"type:uuid;not null"`
	SKU         string    `gorm:"column:sku;type:varchar(100)"`
	Name        string    `gorm:"type:varchar(255)"`
	SystemQty   int       `gorm:"not null"`
	CountedQty  int       `gorm:"not null;default:0"`
	Skipped     bool      `gorm:"not null;default:false"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CampaignItemModel) TableName() string {
	return "inventory_campaign_items"
}

// ToDomain converts the persistence model to a domain CampaignItem.
func (m *CampaignItemModel) ToDomain() inventory.CampaignItem {
	return inventory.CampaignItem{
		ID:          m.ID,
		CampaignID:  m.CampaignID,
		StockItemID: m.StockItemID,
		SKU:         m.SKU,
		Name:        m.Name,
		SystemQty:   m.SystemQty,
		CountedQty:  m.CountedQty,
		Skipped:     m.Skipped,
		UpdatedAt:   m.UpdatedAt,
	}
}

// CampaignItemModelFromDomain creates a persistence model from a domain CampaignItem.
func CampaignItemModelFromDomain(i *inventory.CampaignItem) *CampaignItemModel {
	return &CampaignItemModel{
		ID:          i.ID,
		CampaignID:  i.CampaignID,
		StockItemID: i.StockItemID,
		SKU:         i.SKU,
		Name:        i.Name,
		SystemQty:   i.SystemQty,
		CountedQty:  i.CountedQty,
		Skipped:     i.Skipped,
		UpdatedAt:   i.UpdatedAt,
	}
}
