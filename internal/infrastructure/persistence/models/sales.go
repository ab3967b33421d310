package models

import (
	"fmt"
	"time"

	"github.com/gestock/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	TenantAggregateModel
	CustomerID *uuid.UUID      `gorm:"type:uuid;index"`
	Reference  string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status     string          `gorm:"type:varchar(20);not null;default:'EN_COURS'"`
	TotalHt    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	TotalTtc   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	TaxAmount  decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	AmountPaid decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	SaleDate   time.Time       `gorm:"not null"`
	Items      []SaleItemModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() (*trade.Sale, error) {
	s := &trade.Sale{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		CustomerID:          m.CustomerID,
		Reference:           m.Reference,
		Status:              trade.SaleStatus(m.Status),
		TotalHt:             m.TotalHt,
		TaxAmount:           m.TaxAmount,
		TotalTtc:            m.TotalTtc,
		AmountPaid:          m.AmountPaid,
		SaleDate:            m.SaleDate,
		Items:               make([]trade.SaleItem, len(m.Items)),
	}
	for i := range m.Items {
		item, err := m.Items[i].ToDomain()
		if err != nil {
			return nil, err
		}
		s.Items[i] = *item
	}
	return s, nil
}

// SaleModelFromDomain creates a persistence model from a domain Sale.
// Items are not included; they are written separately.
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{
		CustomerID: s.CustomerID,
		Reference:  s.Reference,
		Status:     string(s.Status),
		TotalHt:    s.TotalHt,
		TotalTtc:   s.TotalTtc,
		TaxAmount:  s.TaxAmount,
		AmountPaid: s.AmountPaid,
		SaleDate:   s.SaleDate,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}

// SaleItemModel is the persistence model for a sale line. The domain's
// product/service variant is stored as a kind column plus two nullable
// foreign keys, exactly one of which is set.
type SaleItemModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemType          string          `gorm:"type:varchar(10);not null"`
	StockItemID       *uuid.UUID      `gorm:"type:uuid;index"`
	ServiceID         *uuid.UUID      `gorm:"type:uuid"`
	Name              string          `gorm:"type:varchar(255)"`
	Quantity          int             `gorm:"not null"`
	QuantityDelivered int             `gorm:"not null;default:0"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TaxRate           decimal.Decimal `gorm:"type:decimal(5,2);not null;default:18"`
	TotalTtc          decimal.Decimal `gorm:"type:decimal(15,2);not null"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain SaleItem.
func (m *SaleItemModel) ToDomain() (*trade.SaleItem, error) {
	var target trade.LineTarget
	switch {
	case m.StockItemID != nil && m.ServiceID == nil:
		target = trade.ProductLine(*m.StockItemID)
	case m.ServiceID != nil && m.StockItemID == nil:
		target = trade.ServiceLine(*m.ServiceID)
	default:
		return nil, fmt.Errorf("sale item %s: exactly one of stock_item_id and service_id must be set", m.ID)
	}
	return &trade.SaleItem{
		ID:                m.ID,
		SaleID:            m.SaleID,
		Target:            target,
		Name:              m.Name,
		Quantity:          m.Quantity,
		QuantityDelivered: m.QuantityDelivered,
		UnitPrice:         m.UnitPrice,
		TaxRate:           m.TaxRate,
		TotalTtc:          m.TotalTtc,
	}, nil
}

// SaleItemModelFromDomain creates a persistence model from a domain SaleItem.
func SaleItemModelFromDomain(i *trade.SaleItem) *SaleItemModel {
	m := &SaleItemModel{
		ID:                i.ID,
		SaleID:            i.SaleID,
		ItemType:          string(i.Target.Kind()),
		Name:              i.Name,
		Quantity:          i.Quantity,
		QuantityDelivered: i.QuantityDelivered,
		UnitPrice:         i.UnitPrice,
		TaxRate:           i.TaxRate,
		TotalTtc:          i.TotalTtc,
	}
	if id, ok := i.Target.StockItemID(); ok {
		m.StockItemID = &id
	}
	if id, ok := i.Target.ServiceID(); ok {
		m.ServiceID = &id
	}
	return m
}

// InvoiceModel is the persistence model for invoices.
type InvoiceModel struct {
	ID          string             `gorm:"type:varchar(50);primaryKey"`
	TenantID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	SaleID      uuid.UUID          `gorm:"type:uuid;index"`
	CustomerID  *uuid.UUID         `gorm:"type:uuid"`
	InvoiceDate time.Time          `gorm:"not null"`
	DueDate     time.Time          `gorm:"not null"`
	Amount      decimal.Decimal    `gorm:"type:decimal(15,2);not null"`
	TaxAmount   decimal.Decimal    `gorm:"type:decimal(15,2);not null"`
	Currency    string             `gorm:"type:varchar(10);not null"`
	Status      string             `gorm:"type:varchar(20);not null"`
	Items       []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
	CreatedAt   time.Time          `gorm:"not null"`
	UpdatedAt   time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *trade.Invoice {
	inv := &trade.Invoice{
		ID:          m.ID,
		TenantID:    m.TenantID,
		SaleID:      m.SaleID,
		CustomerID:  m.CustomerID,
		InvoiceDate: m.InvoiceDate,
		DueDate:     m.DueDate,
		Amount:      m.Amount,
		TaxAmount:   m.TaxAmount,
		Currency:    m.Currency,
		Status:      trade.InvoiceStatus(m.Status),
		Items:       make([]trade.InvoiceItem, len(m.Items)),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for i, item := range m.Items {
		inv.Items[i] = trade.InvoiceItem{
			ID:        item.ID,
			InvoiceID: item.InvoiceID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Qty:       item.Qty,
			Price:     item.Price,
			Tva:       item.Tva,
		}
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice, without lines.
func InvoiceModelFromDomain(inv *trade.Invoice) *InvoiceModel {
	return &InvoiceModel{
		ID:          inv.ID,
		TenantID:    inv.TenantID,
		SaleID:      inv.SaleID,
		CustomerID:  inv.CustomerID,
		InvoiceDate: inv.InvoiceDate,
		DueDate:     inv.DueDate,
		Amount:      inv.Amount,
		TaxAmount:   inv.TaxAmount,
		Currency:    inv.Currency,
		Status:      string(inv.Status),
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}

// InvoiceItemModel is the persistence model for invoice lines.
type InvoiceItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID string          `gorm:"type:varchar(50);not null;index"`
	ProductID *uuid.UUID      `gorm:"type:uuid"`
	Name      string          `gorm:"type:varchar(255);not null"`
	Qty       int             `gorm:"not null;default:1"`
	Price     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Tva       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// InvoiceItemModelFromDomain creates a persistence model from a domain InvoiceItem.
func InvoiceItemModelFromDomain(i *trade.InvoiceItem) *InvoiceItemModel {
	return &InvoiceItemModel{
		ID:        i.ID,
		InvoiceID: i.InvoiceID,
		ProductID: i.ProductID,
		Name:      i.Name,
		Qty:       i.Qty,
		Price:     i.Price,
		Tva:       i.Tva,
	}
}

// PaymentModel is the persistence model for the payment journal.
type PaymentModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID      *uuid.UUID      `gorm:"type:uuid;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null;check:chk_payments_amount,amount <> 0"`
	Method      string          `gorm:"type:varchar(20);not null"`
	Reference   string          `gorm:"type:varchar(100)"`
	PaymentDate time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *trade.Payment {
	return &trade.Payment{
		ID:          m.ID,
		TenantID:    m.TenantID,
		SaleID:      m.SaleID,
		Amount:      m.Amount,
		Method:      trade.PaymentMethod(m.Method),
		Reference:   m.Reference,
		PaymentDate: m.PaymentDate,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment.
func PaymentModelFromDomain(p *trade.Payment) *PaymentModel {
	return &PaymentModel{
		ID:          p.ID,
		TenantID:    p.TenantID,
		SaleID:      p.SaleID,
		Amount:      p.Amount,
		Method:      string(p.Method),
		Reference:   p.Reference,
		PaymentDate: p.PaymentDate,
	}
}
