package trade

import (
	"strings"
	"time"

	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// InvoiceItem is a printed line of an invoice
type InvoiceItem struct {
	ID        uuid.UUID
	InvoiceID string
	ProductID *uuid.UUID
	Name      string
	Qty       int
	Price     decimal.Decimal
	Tva       decimal.Decimal
}

// Invoice mirrors a sale for billing. Its id is a human readable string.
type Invoice struct {
	ID          string
	TenantID    uuid.UUID
	SaleID      uuid.UUID
	CustomerID  *uuid.UUID
	InvoiceDate time.Time
	DueDate     time.Time
	Amount      decimal.Decimal
	TaxAmount   decimal.Decimal
	Currency    string
	Status      InvoiceStatus
	Items       []InvoiceItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewInvoice creates a pending invoice for the sale
func NewInvoice(id string, sale *Sale, dueDays int, currency string) (*Invoice, error) {
	if !strings.HasPrefix(id, "INV-") {
		return nil, shared.NewValidationError("Invalid invoice number %q", id)
	}
	if dueDays < 0 {
		return nil, shared.NewValidationError("Due days cannot be negative")
	}
	now := time.Now()
	inv := &Invoice{
		ID:          id,
		TenantID:    sale.TenantID,
		SaleID:      sale.ID,
		InvoiceDate: now,
		DueDate:     now.AddDate(0, 0, dueDays),
		Currency:    currency,
		Status:      InvoiceStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	inv.SyncWith(sale)
	return inv, nil
}

// SyncWith copies amounts, customer and lines from the sale
func (inv *Invoice) SyncWith(sale *Sale) {
	inv.CustomerID = sale.CustomerID
	inv.Amount = sale.TotalTtc
	inv.TaxAmount = sale.TaxAmount
	inv.Items = make([]InvoiceItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		line := InvoiceItem{
			ID:        uuid.New(),
			InvoiceID: inv.ID,
			Name:      item.Name,
			Qty:       item.Quantity,
			Price:     item.UnitPrice,
			Tva:       item.TaxRate,
		}
		if id, ok := item.Target.StockItemID(); ok {
			line.ProductID = &id
		}
		inv.Items = append(inv.Items, line)
	}
	inv.UpdatedAt = time.Now()
}

// MarkPaid is applied when the sale is fully paid
func (inv *Invoice) MarkPaid() {
	if inv.Status == InvoiceStatusPending {
		inv.Status = InvoiceStatusPaid
		inv.UpdatedAt = time.Now()
	}
}

// Cancel voids the invoice
func (inv *Invoice) Cancel() {
	inv.Status = InvoiceStatusCancelled
	inv.UpdatedAt = time.Now()
}
