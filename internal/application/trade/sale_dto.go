package trade

import (
	"time"

	"github.com/gestock/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleLineRequest is one requested sale line. ID is the stock item for a
// PRODUCT line and the service for a SERVICE line.
type SaleLineRequest struct {
	Type      string          `json:"type" binding:"required,oneof=PRODUCT SERVICE"`
	ID        uuid.UUID       `json:"id" binding:"required"`
	Name      string          `json:"name" binding:"required,max=200"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest represents a request to open a sale
type CreateSaleRequest struct {
	CustomerID    *uuid.UUID        `json:"customer_id"`
	Items         []SaleLineRequest `json:"items" binding:"required,min=1,dive"`
	AmountPaid    decimal.Decimal   `json:"amount_paid"`
	PaymentMethod string            `json:"payment_method" binding:"omitempty,payment_method"`
}

// UpdateSaleRequest replaces the lines of a sale
type UpdateSaleRequest struct {
	CustomerID *uuid.UUID        `json:"customer_id"`
	Items      []SaleLineRequest `json:"items" binding:"required,min=1,dive"`
}

// DeliveryLine is the quantity to deliver for one sale line
type DeliveryLine struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

// RecordDeliveryRequest delivers several lines at once
type RecordDeliveryRequest struct {
	Lines []DeliveryLine `json:"lines" binding:"required,min=1,dive"`
}

// CancelSaleRequest cancels a sale. ReturnToStock maps sale line ids to the
// quantity that goes back to stock.
type CancelSaleRequest struct {
	Reason        string            `json:"reason" binding:"max=255"`
	ReturnToStock map[uuid.UUID]int `json:"return_to_stock"`
}

// AddPaymentRequest records money received
type AddPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" binding:"omitempty,payment_method"`
	Reference string          `json:"reference" binding:"max=100"`
}

// SaleListFilter represents filter options for the sale list
type SaleListFilter struct {
	Search     string     `form:"search"`
	Status     string     `form:"status" binding:"omitempty,oneof=EN_COURS TERMINE ANNULE REMBOURSE"`
	CustomerID *uuid.UUID `form:"customer_id"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SaleItemResponse represents a sale line
type SaleItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	Type              string          `json:"type"`
	TargetID          uuid.UUID       `json:"target_id"`
	Name              string          `json:"name"`
	Quantity          int             `json:"quantity"`
	QuantityDelivered int             `json:"quantity_delivered"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	TotalTtc          decimal.Decimal `json:"total_ttc"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID         uuid.UUID          `json:"id"`
	Reference  string             `json:"reference"`
	CustomerID *uuid.UUID         `json:"customer_id,omitempty"`
	Status     string             `json:"status"`
	TotalHt    decimal.Decimal    `json:"total_ht"`
	TaxAmount  decimal.Decimal    `json:"tax_amount"`
	TotalTtc   decimal.Decimal    `json:"total_ttc"`
	AmountPaid decimal.Decimal    `json:"amount_paid"`
	Balance    decimal.Decimal    `json:"balance"`
	SaleDate   time.Time          `json:"sale_date"`
	Items      []SaleItemResponse `json:"items,omitempty"`
	Invoice    *InvoiceResponse   `json:"invoice,omitempty"`
	Payments   []PaymentResponse  `json:"payments,omitempty"`
	Version    int                `json:"version"`
}

// InvoiceResponse represents the invoice attached to a sale
type InvoiceResponse struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Currency    string          `json:"currency"`
	InvoiceDate time.Time       `json:"invoice_date"`
	DueDate     time.Time       `json:"due_date"`
}

// PaymentResponse represents a payment journal entry
type PaymentResponse struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference,omitempty"`
	PaymentDate time.Time       `json:"payment_date"`
}

// ToSaleResponse converts a sale to its response
func ToSaleResponse(s *trade.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = SaleItemResponse{
			ID:                item.ID,
			Type:              string(item.Target.Kind()),
			TargetID:          item.Target.ID(),
			Name:              item.Name,
			Quantity:          item.Quantity,
			QuantityDelivered: item.QuantityDelivered,
			UnitPrice:         item.UnitPrice,
			TaxRate:           item.TaxRate,
			TotalTtc:          item.TotalTtc,
		}
	}
	balance := s.TotalTtc.Sub(s.AmountPaid)
	if balance.IsNegative() || s.Status.IsClosed() {
		balance = decimal.Zero
	}
	return SaleResponse{
		ID:         s.ID,
		Reference:  s.Reference,
		CustomerID: s.CustomerID,
		Status:     string(s.Status),
		TotalHt:    s.TotalHt,
		TaxAmount:  s.TaxAmount,
		TotalTtc:   s.TotalTtc,
		AmountPaid: s.AmountPaid,
		Balance:    balance,
		SaleDate:   s.SaleDate,
		Items:      items,
		Version:    s.Version,
	}
}

// ToInvoiceResponse converts an invoice to its response
func ToInvoiceResponse(inv *trade.Invoice) *InvoiceResponse {
	if inv == nil {
		return nil
	}
	return &InvoiceResponse{
		ID:          inv.ID,
		Status:      string(inv.Status),
		Amount:      inv.Amount,
		TaxAmount:   inv.TaxAmount,
		Currency:    inv.Currency,
		InvoiceDate: inv.InvoiceDate,
		DueDate:     inv.DueDate,
	}
}

// ToPaymentResponses converts payments to responses
func ToPaymentResponses(payments []trade.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = PaymentResponse{
			ID:          p.ID,
			Amount:      p.Amount,
			Method:      string(p.Method),
			Reference:   p.Reference,
			PaymentDate: p.PaymentDate,
		}
	}
	return responses
}

func toLineInputs(lines []SaleLineRequest) ([]trade.LineInput, error) {
	inputs := make([]trade.LineInput, len(lines))
	for i, l := range lines {
		target, err := trade.NewLineTarget(trade.LineKind(l.Type), l.ID)
		if err != nil {
			return nil, err
		}
		inputs[i] = trade.LineInput{
			Target:    target,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	return inputs, nil
}
